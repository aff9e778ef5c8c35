package metadata

import "hardcoversync/internal/config"

// Property is one frontmatter entry. Value is a string, a []string or an int
// and is never empty. Activity date fields produce up to two properties, named
// after their start and end property names.
type Property struct {
	Field config.FieldKey
	Name  string
	Value any
}

// Body holds what is rendered above the content delimiter.
type Body struct {
	Title       string
	CoverURL    string
	Description string
	Review      string
	Quotes      []string
}

// Metadata is the normalized form of one library entry. Props are kept in
// canonical field order.
type Metadata struct {
	BookID int
	Props  []Property
	Body   Body
}

func (m *Metadata) add(field config.FieldKey, name string, value any) {
	m.Props = append(m.Props, Property{Field: field, Name: name, Value: value})
}

// Lookup returns the value stored under a property name.
func (m *Metadata) Lookup(name string) (any, bool) {
	for _, p := range m.Props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Has reports whether the field produced at least one property.
func (m *Metadata) Has(field config.FieldKey) bool {
	for _, p := range m.Props {
		if p.Field == field {
			return true
		}
	}
	return false
}

// String returns the field's value when it is a string.
func (m *Metadata) String(field config.FieldKey) string {
	for _, p := range m.Props {
		if p.Field == field {
			if s, ok := p.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Strings returns the field's value when it is a list.
func (m *Metadata) Strings(field config.FieldKey) []string {
	for _, p := range m.Props {
		if p.Field == field {
			if s, ok := p.Value.([]string); ok {
				return s
			}
		}
	}
	return nil
}
