package metadata

import (
	"regexp"
	"strings"
)

// FormatReview converts stored review text to Markdown.
//
// Text containing <p> or <br> is treated as HTML: <p> is dropped, </p>
// becomes a blank line, <br>, <br/> and <br /> become newlines, and the
// entities &quot; &amp; &lt; &gt; are decoded. No other tags are recognized.
// Anything else is treated as raw text where only escaped quotes are undone.
func FormatReview(text string) string {
	if text == "" {
		return ""
	}
	if !strings.Contains(text, "<p>") && !strings.Contains(text, "<br>") {
		return strings.TrimSpace(strings.ReplaceAll(text, `\"`, `"`))
	}

	text = strings.ReplaceAll(text, "<p>", "")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = lineBreak.ReplaceAllString(text, "\n")
	return strings.TrimSpace(entities.Replace(text))
}

var lineBreak = regexp.MustCompile(`<br\s*/?>`)

var entities = strings.NewReplacer(
	"&quot;", `"`,
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)
