package notes

import (
	"strings"

	"hardcoversync/internal/config"
	"hardcoversync/internal/metadata"
)

// Delimiter separates the generated part of a note body from the user's own
// writing. Nothing after it is ever rewritten.
const Delimiter = "<!-- obsidian-hardcover-plugin-end -->"

// renderBody produces the generated preamble followed by the delimiter.
func renderBody(s *config.Settings, m *metadata.Metadata) string {
	f := &s.Fields
	title := m.Body.Title
	if title == "" {
		title = "Untitled"
	}
	escaped := metadata.EscapeMarkdown(title)

	var b strings.Builder
	b.WriteString("# " + escaped + "\n\n")

	hasCover := f.Cover.Enabled && m.Body.CoverURL != ""
	if hasCover {
		b.WriteString("![" + escaped + " Cover|300](" + m.Body.CoverURL + ")\n\n")
	}

	if f.Description.Enabled && m.Body.Description != "" {
		if hasCover {
			b.WriteString("\n")
		}
		b.WriteString(m.Body.Description + "\n\n")
	}

	if f.Review.Enabled && m.Body.Review != "" {
		b.WriteString("## My Review\n\n" + m.Body.Review + "\n\n")
	}

	if f.Quotes.Enabled && len(m.Body.Quotes) > 0 {
		b.WriteString("## Quotes\n\n")
		for _, q := range m.Body.Quotes {
			b.WriteString(renderQuote(q, f.Quotes.Format) + "\n\n")
		}
	}

	b.WriteString("\n" + Delimiter + "\n\n")
	return b.String()
}

func renderQuote(q, format string) string {
	lines := strings.Split(q, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	if format == config.QuotesCallout {
		return "> [!quote]\n" + strings.Join(lines, "\n")
	}
	return strings.Join(lines, "\n")
}

// userSection returns everything after the delimiter, or false when the body
// has none.
func userSection(body string) (string, bool) {
	i := strings.Index(body, Delimiter)
	if i < 0 {
		return "", false
	}
	return body[i+len(Delimiter):], true
}

// spliceBody keeps the user's section of the existing body after a freshly
// generated preamble. A body without the delimiter is replaced entirely.
func spliceBody(generated, existing string) string {
	user, ok := userSection(existing)
	if !ok {
		return generated
	}
	return strings.TrimSuffix(generated, "\n\n") + user
}

// appendUserSection adds the mover's user text to the occupant's when it
// carries something the occupant does not already have.
func appendUserSection(occupant, mover string) string {
	if strings.TrimSpace(mover) == "" || strings.Contains(occupant, strings.TrimSpace(mover)) {
		return occupant
	}
	if occupant != "" && !strings.HasSuffix(occupant, "\n") {
		occupant += "\n"
	}
	return occupant + mover
}
