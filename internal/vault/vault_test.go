package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"/":                 "",
		"Books/":            "Books",
		"/Books//Author/":   "Books/Author",
		"Books\\Author\\x":  "Books/Author/x",
		"./Books/../Notes/": "Notes",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), in)
	}
	assert.Equal(t, "Books/A/b.md", Join("Books", "", "A", "b.md"))
	assert.Equal(t, "Books/A", Dir("Books/A/b.md"))
	assert.Equal(t, "", Dir("b.md"))
	assert.Equal(t, "b.md", Base("Books/A/b.md"))
}

func TestFSStore(t *testing.T) {
	s := NewMemStore()

	require.NoError(t, s.CreateFolder("Books/Martha Wells"))
	err := s.CreateFolder("Books/Martha Wells")
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, s.Create("Books/Martha Wells/All Systems Red.md", "v1"))
	assert.ErrorIs(t, s.Create("Books/Martha Wells/All Systems Red.md", "v2"), ErrExists)

	got, err := s.Read("Books/Martha Wells/All Systems Red.md")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, s.Write("Books/Martha Wells/All Systems Red.md", "v2"))
	got, _ = s.Read("Books/Martha Wells/All Systems Red.md")
	assert.Equal(t, "v2", got)

	assert.ErrorIs(t, s.Write("Books/missing.md", "x"), ErrNotFound)
	_, err = s.Read("Books/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create("Books/other.md", "o"))
	assert.ErrorIs(t, s.Rename("Books/other.md", "Books/Martha Wells/All Systems Red.md"), ErrExists)
	require.NoError(t, s.Rename("Books/other.md", "Books/Martha Wells/other.md"))

	ok, err := s.Exists("Books/other.md")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := s.List("Books")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Path: "Books/Martha Wells", IsDir: true}, entries[0])

	entries, err = s.List("Books/Martha Wells")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Path: "Books/Martha Wells/All Systems Red.md"},
		{Path: "Books/Martha Wells/other.md"},
	}, entries)

	require.NoError(t, s.Remove("Books/Martha Wells/other.md"))
	assert.ErrorIs(t, s.Remove("Books/Martha Wells/other.md"), ErrNotFound)

	entries, err = s.List("Nowhere")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseDocument(t *testing.T) {
	t.Run("frontmatter and body", func(t *testing.T) {
		doc, err := ParseDocument("---\nhardcoverBookId: 7\ntags: [a, b]\n---\n\n# Title\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"hardcoverBookId", "tags"}, doc.Frontmatter.Keys())
		id, ok := doc.Frontmatter.Int("hardcoverBookId")
		assert.True(t, ok)
		assert.Equal(t, 7, id)
		assert.Equal(t, []string{"a", "b"}, doc.Frontmatter.Strings("tags"))
		assert.Equal(t, "# Title\n", doc.Body)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		doc, err := ParseDocument("just prose\n---\nmore")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Frontmatter.Len())
		assert.Equal(t, "just prose\n---\nmore", doc.Body)
	})

	t.Run("unterminated block is body", func(t *testing.T) {
		doc, err := ParseDocument("---\ntitle: x\nno fence")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Frontmatter.Len())
		assert.Equal(t, "---\ntitle: x\nno fence", doc.Body)
	})

	t.Run("empty block", func(t *testing.T) {
		doc, err := ParseDocument("---\n---\nbody")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Frontmatter.Len())
		assert.Equal(t, "body", doc.Body)
	})

	t.Run("block at end of file", func(t *testing.T) {
		doc, err := ParseDocument("---\nrating: \"4/5\"\n---")
		require.NoError(t, err)
		assert.Equal(t, []string{"4/5"}, doc.Frontmatter.Strings("rating"))
		assert.Equal(t, "", doc.Body)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseDocument("---\n: : :\n  - [\n---\n")
		assert.Error(t, err)
	})
}

func TestDocument_RoundTrip(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("hardcoverBookId", IntNode(42))
	fm.Set("title", StringNode(`The "Quoted" Book`))
	fm.Set("authors", ListNode([]string{"[[Martha Wells]]", "Jane Doe"}))
	fm.Set("isbn10", StringNode("0123456789"))

	doc := &Document{Frontmatter: fm, Body: "# Title\n\nprose\n"}
	text, err := doc.String()
	require.NoError(t, err)

	assert.Contains(t, text, "hardcoverBookId: 42\n")
	assert.Contains(t, text, `title: "The \"Quoted\" Book"`)
	assert.Contains(t, text, `authors: ["[[Martha Wells]]", "Jane Doe"]`)
	assert.Contains(t, text, "\n---\n\n# Title\n")

	parsed, err := ParseDocument(text)
	require.NoError(t, err)
	again, err := parsed.String()
	require.NoError(t, err)
	assert.Equal(t, text, again)
	assert.Equal(t, `The "Quoted" Book`, parsed.Frontmatter.Strings("title")[0])
	assert.Equal(t, []string{"0123456789"}, parsed.Frontmatter.Strings("isbn10"))
}

func TestFrontmatter_SetDelete(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("a", StringNode("1"))
	fm.Set("b", StringNode("2"))
	fm.Set("a", StringNode("3"))
	assert.Equal(t, []string{"a", "b"}, fm.Keys())
	assert.Equal(t, []string{"3"}, fm.Strings("a"))

	fm.Delete("a")
	fm.Delete("missing")
	assert.Equal(t, []string{"b"}, fm.Keys())

	_, ok := fm.Int("b")
	assert.True(t, ok)
	_, ok = fm.Int("missing")
	assert.False(t, ok)
}
