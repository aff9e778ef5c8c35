package notes

import (
	"gopkg.in/yaml.v3"

	"hardcoversync/internal/config"
	"hardcoversync/internal/metadata"
	"hardcoversync/internal/vault"
)

// managedValues renders the metadata as frontmatter nodes keyed by property
// name, with wikilinks applied, in the order they should be appended.
func managedValues(s *config.Settings, m *metadata.Metadata) ([]string, map[string]*yaml.Node) {
	order := []string{config.BookIDProperty}
	values := map[string]*yaml.Node{config.BookIDProperty: vault.IntNode(m.BookID)}

	for _, p := range m.Props {
		value := p.Value
		if linkable[p.Field] && s.Fields.Field(p.Field).Wikilinks {
			value = linkValue(p.Field, value)
		}

		var node *yaml.Node
		switch v := value.(type) {
		case string:
			node = vault.StringNode(v)
		case []string:
			node = vault.ListNode(v)
		case int:
			node = vault.IntNode(v)
		default:
			continue
		}
		if _, dup := values[p.Name]; !dup {
			order = append(order, p.Name)
		}
		values[p.Name] = node
	}
	return order, values
}

// mergeFrontmatter builds the frontmatter of an updated note, walking the
// existing keys in their original order. Managed keys take the fresh value
// or are dropped when the metadata no longer has one. Other keys survive only
// when custom frontmatter is preserved. Managed keys that were not present
// are appended in canonical order.
func mergeFrontmatter(s *config.Settings, existing *vault.Frontmatter, m *metadata.Metadata) *vault.Frontmatter {
	managed := make(map[string]bool)
	for _, name := range s.Fields.ManagedPropertyNames() {
		managed[name] = true
	}
	order, fresh := managedValues(s, m)

	out := vault.NewFrontmatter()
	written := make(map[string]bool)
	if existing != nil {
		for _, fld := range existing.Fields() {
			switch {
			case managed[fld.Key]:
				if v, ok := fresh[fld.Key]; ok {
					out.Set(fld.Key, v)
					written[fld.Key] = true
				}
			case s.PreserveCustomFrontmatter:
				out.Set(fld.Key, fld.Value)
			}
		}
	}

	for _, name := range order {
		if !written[name] {
			out.Set(name, fresh[name])
		}
	}
	return out
}

// adoptCustomKeys copies the keys of from that are neither managed nor
// already present in into.
func adoptCustomKeys(s *config.Settings, into, from *vault.Frontmatter) {
	if !s.PreserveCustomFrontmatter || from == nil {
		return
	}
	managed := make(map[string]bool)
	for _, name := range s.Fields.ManagedPropertyNames() {
		managed[name] = true
	}
	for _, fld := range from.Fields() {
		if managed[fld.Key] {
			continue
		}
		if _, ok := into.Get(fld.Key); !ok {
			into.Set(fld.Key, fld.Value)
		}
	}
}
