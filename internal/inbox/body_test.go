package inbox

import (
	"strings"
	"testing"
)

func TestPlainBodyPrefersText(t *testing.T) {
	m := &Message{
		Body:     "plain text complaint",
		HTMLBody: "<html><body>html complaint</body></html>",
	}
	if got := m.PlainBody(); got != "plain text complaint" {
		t.Errorf("PlainBody() = %q, want the text part", got)
	}
}

func TestPlainBodyConvertsHTML(t *testing.T) {
	m := &Message{
		HTMLBody: `<html><head><style>p { color: red; }</style></head>
<body><p>My Tata Nexon KA05MN1234 has an engine problem.</p>
<script>alert("x")</script></body></html>`,
	}
	got := m.PlainBody()
	if !strings.Contains(got, "My Tata Nexon KA05MN1234 has an engine problem.") {
		t.Errorf("PlainBody() = %q, want complaint text", got)
	}
	if strings.Contains(got, "color: red") || strings.Contains(got, "alert") {
		t.Errorf("PlainBody() leaked style or script content: %q", got)
	}
}

func TestPlainBodyEmpty(t *testing.T) {
	m := &Message{}
	if got := m.PlainBody(); got != "" {
		t.Errorf("PlainBody() = %q, want empty", got)
	}
}

func TestHTMLToTextMalformed(t *testing.T) {
	got := htmlToText("<p>reg no KA05MN1234<br>dealer: Prerana")
	if !strings.Contains(got, "KA05MN1234") {
		t.Errorf("htmlToText() = %q, want text preserved", got)
	}
}
