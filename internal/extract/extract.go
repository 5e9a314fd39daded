package extract

import (
	"regexp"
	"strings"
)

// Field identifies a complaint detail that can be pulled from an email body.
type Field string

const (
	FieldRegNo   Field = "reg_no"
	FieldCarName Field = "car_name"
	FieldDealer  Field = "dealer"
	FieldPhoneNo Field = "phone_no"
)

// Label returns the customer-facing name of the field, used when asking
// for missing details.
func (f Field) Label() string {
	switch f {
	case FieldRegNo:
		return "Reg No"
	case FieldCarName:
		return "Car Name"
	case FieldDealer:
		return "Dealer"
	case FieldPhoneNo:
		return "Phone No"
	}
	return string(f)
}

// rule maps a field to its pattern. group selects the submatch to return;
// 0 means the whole match.
type rule struct {
	field Field
	re    *regexp.Regexp
	group int
}

// Ordered rule table. Patterns mirror the formats customers actually use:
// Indian-style registration numbers with optional separators, the current
// Tata model lineup, a "dealer:"/"dealership -" label, and bare 10-digit
// phone numbers.
var rules = []rule{
	{FieldRegNo, regexp.MustCompile(`(?i)\b[A-Z]{2}[ -]?\d{1,2}[ -]?[A-Z]{0,2}[ -]?\d{4}\b`), 0},
	{FieldCarName, regexp.MustCompile(`(?i)\b(Tata Harrier|Tata Safari|Tata Altroz|Tata Nexon|Tata Tiago|Tata Tigor|Tata Punch|Tata Tiago NRG|Tata Nexon EV|Tata Punch EV)\b`), 0},
	{FieldDealer, regexp.MustCompile(`(?i)dealer(?:ship)?[:\-]?\s*([\w ]+)`), 1},
	{FieldPhoneNo, regexp.MustCompile(`\b\d{10}\b`), 0},
}

// Detail returns the first match for the given field in the body. Absence is
// not an error; the caller decides how to react.
func Detail(body string, field Field) (string, bool) {
	for _, r := range rules {
		if r.field != field {
			continue
		}
		m := r.re.FindStringSubmatch(body)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[r.group]), true
	}
	return "", false
}

var nameLabelRe = regexp.MustCompile(`Name:\s*([\w ]+)`)

// NameFromBody returns the value of a "Name:" label if the customer included
// one in the message.
func NameFromBody(body string) (string, bool) {
	m := nameLabelRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// NameFromAddress falls back to the local part of the sender address.
func NameFromAddress(addr string) string {
	if i := strings.Index(addr, "@"); i >= 0 {
		return addr[:i]
	}
	return addr
}
