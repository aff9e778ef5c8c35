package vault

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is a YAML mapping that keeps key order and value styling.
type Frontmatter struct {
	node *yaml.Node
}

// Field is one key/value pair of a frontmatter mapping.
type Field struct {
	Key   string
	Value *yaml.Node
}

func NewFrontmatter() *Frontmatter {
	return &Frontmatter{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func parseFrontmatter(raw string) (*Frontmatter, error) {
	if strings.TrimSpace(raw) == "" {
		return NewFrontmatter(), nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if len(doc.Content) == 0 {
		return NewFrontmatter(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse frontmatter: expected a mapping, got kind %d", root.Kind)
	}
	return &Frontmatter{node: root}, nil
}

func (f *Frontmatter) Len() int {
	return len(f.node.Content) / 2
}

// Fields returns the pairs in document order.
func (f *Frontmatter) Fields() []Field {
	out := make([]Field, 0, f.Len())
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		out = append(out, Field{Key: f.node.Content[i].Value, Value: f.node.Content[i+1]})
	}
	return out
}

func (f *Frontmatter) Keys() []string {
	keys := make([]string, 0, f.Len())
	for _, fld := range f.Fields() {
		keys = append(keys, fld.Key)
	}
	return keys
}

func (f *Frontmatter) Get(key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			return f.node.Content[i+1], true
		}
	}
	return nil, false
}

// Set replaces the value of key in place, or appends the pair.
func (f *Frontmatter) Set(key string, value *yaml.Node) {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			f.node.Content[i+1] = value
			return
		}
	}
	f.node.Content = append(f.node.Content, KeyNode(key), value)
}

func (f *Frontmatter) Delete(key string) {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			f.node.Content = append(f.node.Content[:i], f.node.Content[i+2:]...)
			return
		}
	}
}

// Int reads an integer scalar.
func (f *Frontmatter) Int(key string) (int, bool) {
	n, ok := f.Get(key)
	if !ok || n.Kind != yaml.ScalarNode {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Strings reads a scalar or a sequence of scalars.
func (f *Frontmatter) Strings(key string) []string {
	n, ok := f.Get(key)
	if !ok {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind == yaml.ScalarNode && c.Value != "" {
				out = append(out, c.Value)
			}
		}
		return out
	}
	return nil
}

func (f *Frontmatter) encode() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.node); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return buf.String(), nil
}

func KeyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

// StringNode is a double-quoted string scalar.
func StringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func IntNode(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

// ListNode is a flow sequence of double-quoted strings.
func ListNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, it := range items {
		n.Content = append(n.Content, StringNode(it))
	}
	return n
}
