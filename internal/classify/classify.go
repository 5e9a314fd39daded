package classify

import "strings"

// stateCodes maps the two-letter registration prefix to the issuing state
// or union territory.
var stateCodes = map[string]string{
	"AP": "Andhra Pradesh", "AR": "Arunachal Pradesh", "AS": "Assam", "BR": "Bihar",
	"CG": "Chhattisgarh", "GA": "Goa", "GJ": "Gujarat", "HR": "Haryana",
	"HP": "Himachal Pradesh", "JH": "Jharkhand", "KA": "Karnataka", "KL": "Kerala",
	"MP": "Madhya Pradesh", "MH": "Maharashtra", "MN": "Manipur", "ML": "Meghalaya",
	"MZ": "Mizoram", "NL": "Nagaland", "OR": "Odisha", "PB": "Punjab",
	"RJ": "Rajasthan", "SK": "Sikkim", "TN": "Tamil Nadu", "TG": "Telangana",
	"TR": "Tripura", "UP": "Uttar Pradesh", "UK": "Uttarakhand", "WB": "West Bengal",
	"AN": "Andaman and Nicobar Islands", "CH": "Chandigarh",
	"DD": "Dadra and Nagar Haveli and Daman and Diu",
	"LD": "Lakshadweep", "DL": "Delhi", "PY": "Puducherry", "LA": "Ladakh",
	"JK": "Jammu and Kashmir",
}

// AreaFromRegNo derives the customer's region from the first two letters of
// the registration number. Unknown prefixes and inputs shorter than two
// characters yield "Unknown".
func AreaFromRegNo(regNo string) string {
	if len(regNo) < 2 {
		return "Unknown"
	}
	if area, ok := stateCodes[strings.ToUpper(regNo[:2])]; ok {
		return area
	}
	return "Unknown"
}

// problemKeywords is scanned in order; the first hit wins, so more specific
// mechanical terms come before the catch-all service ones.
var problemKeywords = []string{
	"engine", "transmission", "brakes", "battery", "AC", "suspension",
	"breakdown", "display", "servicing", "product malfunctioning",
	"service adviser", "part availability", "dealer service",
}

// ProblemArea scans the body for known problem keywords, case-insensitively,
// and returns the capitalized form of the first match. No match yields
// "General".
func ProblemArea(body string) string {
	lower := strings.ToLower(body)
	for _, kw := range problemKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return capitalize(kw)
		}
	}
	return "General"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Close-request phrases. Matching is case-insensitive substring search, the
// same as problem keywords.
var closePhrases = []string{
	"close the complaint",
	"close the status",
}

// CloseRequested reports whether the customer is asking to close an open
// complaint.
func CloseRequested(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range closePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
