package metadata

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var typographic = strings.NewReplacer(
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// NormalizeText straightens curly quotes and apostrophes and turns en and em
// dashes into hyphens.
func NormalizeText(s string) string {
	return typographic.Replace(s)
}

var markdownEscaper = strings.NewReplacer(
	"[", `\[`,
	"]", `\]`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"<", `\<`,
)

// EscapeMarkdown escapes the characters that would turn a title into a link,
// emphasis, code, a heading or a tag.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// flattenDescription makes a description safe for a single-line property.
// Literal "\n" sequences are common in upstream data.
func flattenDescription(s string) string {
	s = strings.ReplaceAll(s, `\n`, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
