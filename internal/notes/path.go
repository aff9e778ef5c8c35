// Package notes turns normalized book metadata into notes in the vault:
// where a note lives, what it contains, and how an existing note is updated
// without losing what the user wrote.
package notes

import (
	"regexp"
	"strconv"
	"strings"

	"hardcoversync/internal/config"
	"hardcoversync/internal/metadata"
	"hardcoversync/internal/platform/hardcover"
	"hardcoversync/internal/vault"
)

const noteExt = ".md"

var (
	placeholder     = regexp.MustCompile(`\$\{[^}]*\}`)
	emptyParens     = regexp.MustCompile(`\(\s*\)`)
	emptyBrackets   = regexp.MustCompile(`\[\s*\]`)
	emptyBraces     = regexp.MustCompile(`\{\s*\}`)
	danglingDash    = regexp.MustCompile(`\s+-\s*$`)
	spaces          = regexp.MustCompile(`\s+`)
	illegalFilename = regexp.MustCompile(`[\\/:*?"<>|]`)
	seriesPosition  = regexp.MustCompile(`\s*#\d+.*$`)
)

// PathBuilder derives the vault path of a book's note.
type PathBuilder struct {
	settings *config.Settings
}

func NewPathBuilder(settings *config.Settings) *PathBuilder {
	return &PathBuilder{settings: settings}
}

// Build returns the full path: target folder, grouping folders when enabled,
// and the templated filename.
func (b *PathBuilder) Build(m *metadata.Metadata, raw []hardcover.Contributor) string {
	dir := ""
	if b.settings.Grouping.Enabled {
		dir = b.Directory(m.Strings(config.FieldAuthors), m.Strings(config.FieldSeries), raw)
	}
	return vault.Join(b.settings.TargetFolder, dir, b.Filename(m))
}

// Filename expands the filename template. Substitution happens first, then
// unresolved placeholders are removed, then brackets left empty and stray
// whitespace are cleaned up, and finally illegal characters are stripped.
func (b *PathBuilder) Filename(m *metadata.Metadata) string {
	name := b.settings.FilenameTemplate
	if name == "" {
		name = config.DefaultFilenameTemplate
	}

	if m.Body.Title != "" {
		name = strings.ReplaceAll(name, "${title}", m.Body.Title)
	}
	if authors := m.Strings(config.FieldAuthors); len(authors) > 0 {
		name = strings.ReplaceAll(name, "${authors}", strings.Join(authors, ", "))
	}
	year := ""
	if y, ok := metadata.Year(m.String(config.FieldReleaseDate)); ok {
		year = strconv.Itoa(y)
	}
	name = strings.ReplaceAll(name, "${year}", year)

	name = placeholder.ReplaceAllString(name, "")
	name = emptyParens.ReplaceAllString(name, "")
	name = emptyBrackets.ReplaceAllString(name, "")
	name = emptyBraces.ReplaceAllString(name, "")
	name = danglingDash.ReplaceAllString(name, "")
	name = sanitize(name)
	if name == "" {
		name = "Untitled"
	}
	return name + noteExt
}

// Directory computes the grouping folders below the target folder. It is
// also used by the reorganizer, which feeds it values read back from
// frontmatter.
func (b *PathBuilder) Directory(authors, series []string, raw []hardcover.Contributor) string {
	g := b.settings.Grouping
	var parts []string

	if g.GroupBy == config.GroupByAuthor || g.GroupBy == config.GroupByAuthorSeries {
		if d := b.authorDirectory(authors, raw); d != "" {
			parts = append(parts, d)
		}
	}
	if g.GroupBy == config.GroupBySeries || g.GroupBy == config.GroupByAuthorSeries {
		if d := seriesDirectory(series); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, "/")
}

// NeedsContributors reports whether a note without authors gets its folder
// from the raw contributor list, which only the remote record carries.
func (b *PathBuilder) NeedsContributors(authors []string) bool {
	g := b.settings.Grouping
	if !g.Enabled || len(authors) > 0 || g.NoAuthorBehavior == config.NoAuthorFallbackFolder {
		return false
	}
	return g.GroupBy == config.GroupByAuthor || g.GroupBy == config.GroupByAuthorSeries
}

func (b *PathBuilder) authorDirectory(authors []string, raw []hardcover.Contributor) string {
	g := b.settings.Grouping

	if g.MultipleAuthorsBehavior == config.MultipleAuthorsCollections && len(authors) > 1 {
		return sanitize(g.CollectionsFolderName)
	}
	if len(authors) > 0 {
		return sanitize(b.formatAuthor(StripWikilink(authors[0])))
	}

	if g.NoAuthorBehavior == config.NoAuthorFallbackFolder {
		return sanitize(g.FallbackFolderName)
	}
	if name := fallbackContributor(raw); name != "" {
		return sanitize(b.formatAuthor(name))
	}
	return ""
}

// fallbackContributor prefers a writer, then an editor, then whoever is
// listed first.
func fallbackContributor(raw []hardcover.Contributor) string {
	for _, role := range []string{"Writer", "Editor"} {
		for _, c := range raw {
			if strings.EqualFold(c.Contribution, role) && c.Author.Name != "" {
				return metadata.NormalizeText(c.Author.Name)
			}
		}
	}
	for _, c := range raw {
		if c.Author.Name != "" {
			return metadata.NormalizeText(c.Author.Name)
		}
	}
	return ""
}

func (b *PathBuilder) formatAuthor(name string) string {
	if b.settings.Grouping.AuthorFormat != config.AuthorFormatLastFirst {
		return name
	}
	return LastFirst(name)
}

var nameSuffixes = map[string]bool{
	"jr": true, "sr": true,
	"ii": true, "iii": true, "iv": true, "v": true,
	"vi": true, "vii": true, "viii": true, "ix": true, "x": true,
}

// LastFirst rewrites "First Middle Last Jr." as "Last Jr., First Middle".
// Names that already contain a comma or are a single word are returned as is.
func LastFirst(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ",") {
		return name
	}
	words := strings.Fields(name)

	end := len(words)
	for end > 1 && nameSuffixes[strings.ToLower(strings.TrimSuffix(words[end-1], "."))] {
		end--
	}
	if end < 2 {
		return name
	}

	surname := strings.Join(words[end-1:], " ")
	return surname + ", " + strings.Join(words[:end-1], " ")
}

func seriesDirectory(series []string) string {
	if len(series) == 0 {
		return ""
	}
	name := StripWikilink(series[0])
	return sanitize(seriesPosition.ReplaceAllString(name, ""))
}

func sanitize(s string) string {
	s = illegalFilename.ReplaceAllString(s, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
