package inbox

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainBody returns the plain-text content of the message. HTML-only
// messages are converted to text so the extraction patterns still apply.
func (m *Message) PlainBody() string {
	if m.Body != "" {
		return m.Body
	}
	if m.HTMLBody != "" {
		return htmlToText(m.HTMLBody)
	}
	return ""
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// htmlToText extracts readable text from an HTML body.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Fallback to naive tag stripping
		return strings.TrimSpace(tagRe.ReplaceAllString(html, " "))
	}
	doc.Find("style, script").Remove()
	return strings.TrimSpace(doc.Text())
}
