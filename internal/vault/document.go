package vault

import "strings"

const fence = "---"

// Document is a note split into its frontmatter and body text.
type Document struct {
	Frontmatter *Frontmatter
	Body        string
}

// ParseDocument splits text at the leading frontmatter block. Text without
// a well-formed block parses as an empty mapping and the whole text as body.
// The blank line after the closing fence is not part of the body.
func ParseDocument(text string) (*Document, error) {
	if !strings.HasPrefix(text, fence+"\n") {
		return &Document{Frontmatter: NewFrontmatter(), Body: text}, nil
	}
	rest := text[len(fence)+1:]

	var raw, body string
	switch {
	case rest == fence:
		body = ""
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	default:
		end := strings.Index(rest, "\n"+fence+"\n")
		switch {
		case end >= 0:
			raw = rest[:end]
			body = rest[end+len(fence)+2:]
		case strings.HasSuffix(rest, "\n"+fence):
			raw = strings.TrimSuffix(rest, "\n"+fence)
		default:
			return &Document{Frontmatter: NewFrontmatter(), Body: text}, nil
		}
	}

	fm, err := parseFrontmatter(raw)
	if err != nil {
		return nil, err
	}
	return &Document{Frontmatter: fm, Body: strings.TrimPrefix(body, "\n")}, nil
}

// String renders the document. A document with no frontmatter keys renders
// as its body alone.
func (d *Document) String() (string, error) {
	if d.Frontmatter == nil || d.Frontmatter.Len() == 0 {
		return d.Body, nil
	}
	fm, err := d.Frontmatter.encode()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fence + "\n")
	b.WriteString(fm)
	b.WriteString(fence + "\n\n")
	b.WriteString(d.Body)
	return b.String(), nil
}

// ReadDocument reads and parses the note at p.
func ReadDocument(s Store, p string) (*Document, error) {
	text, err := s.Read(p)
	if err != nil {
		return nil, err
	}
	return ParseDocument(text)
}
