package notes

import (
	"regexp"
	"strings"

	"hardcoversync/internal/config"
)

var (
	roleSuffix     = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	positionSuffix = regexp.MustCompile(`\s+#\d+(?:\.\d+)?$`)
)

// Wikilink wraps a value as [[value]]. Values that are already links are
// left alone.
func Wikilink(s string) string {
	if isWikilink(s) {
		return s
	}
	return "[[" + s + "]]"
}

// AliasedWikilink links to base while displaying the full value, as in
// [[Stefano Cresti|Stefano Cresti (Translator)]]. When the value has nothing
// to strip it falls back to a plain link.
func AliasedWikilink(display, base string) string {
	if isWikilink(display) {
		return display
	}
	base = strings.TrimSpace(base)
	if base == "" || base == display {
		return Wikilink(display)
	}
	return "[[" + base + "|" + display + "]]"
}

// StripWikilink returns the link target of [[target]] or [[target|alias]],
// or s unchanged when it is not a link.
func StripWikilink(s string) string {
	if !isWikilink(s) {
		return s
	}
	inner := s[2 : len(s)-2]
	if i := strings.Index(inner, "|"); i >= 0 {
		return inner[:i]
	}
	return inner
}

func isWikilink(s string) bool {
	return len(s) >= 4 && strings.HasPrefix(s, "[[") && strings.HasSuffix(s, "]]")
}

// linkValue applies the field's wikilink formatting to a property value.
func linkValue(field config.FieldKey, value any) any {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = linkOne(field, s)
		}
		return out
	case string:
		return linkOne(field, v)
	}
	return value
}

func linkOne(field config.FieldKey, s string) string {
	switch field {
	case config.FieldContributors:
		return AliasedWikilink(s, roleSuffix.ReplaceAllString(s, ""))
	case config.FieldSeries:
		return AliasedWikilink(s, positionSuffix.ReplaceAllString(s, ""))
	}
	return Wikilink(s)
}

// linkable lists the fields whose values may be written as wikilinks.
var linkable = map[config.FieldKey]bool{
	config.FieldAuthors:      true,
	config.FieldContributors: true,
	config.FieldSeries:       true,
	config.FieldPublisher:    true,
	config.FieldGenres:       true,
	config.FieldLists:        true,
}
