package metadata

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"hardcoversync/internal/config"
	"hardcoversync/internal/platform/hardcover"
)

const (
	maxAuthors      = 5
	maxContributors = 5

	bookURLPrefix = "https://hardcover.app/books/"
	genreCategory = "Genre"
	authorRole    = "Author"
)

// Builder turns remote library entries into Metadata according to the field
// configuration. It performs no I/O.
type Builder struct {
	settings *config.Settings
}

func NewBuilder(settings *config.Settings) *Builder {
	return &Builder{settings: settings}
}

// Build normalizes one library entry. lists maps book ids to list names and
// may be nil. The second result is the contributor list authors were read
// from, used by path building when a book has no author.
func (b *Builder) Build(ub hardcover.UserBook, lists map[int][]string) (*Metadata, []hardcover.Contributor) {
	f := &b.settings.Fields
	src := b.settings.DataSources
	m := &Metadata{BookID: ub.BookID}

	title := NormalizeText(fromSource(src.Title, ub.Book.Title, ub.Edition.Title))
	m.Body.Title = title
	if f.Title.Enabled && title != "" {
		m.add(config.FieldTitle, f.Title.PropertyName, title)
	}

	if f.Description.Enabled && ub.Book.Description != "" {
		m.Body.Description = ub.Book.Description
		if flat := flattenDescription(ub.Book.Description); flat != "" {
			m.add(config.FieldDescription, f.Description.PropertyName, flat)
		}
	}

	cover := imageURL(fromSource(src.Cover, ub.Book.CachedImage, ub.Edition.CachedImage))
	if f.Cover.Enabled && cover != "" {
		m.Body.CoverURL = cover
		m.add(config.FieldCover, f.Cover.PropertyName, cover)
	}

	if date := fromSource(src.ReleaseDate, ub.Book.ReleaseDate, ub.Edition.ReleaseDate); f.ReleaseDate.Enabled && date != "" {
		m.add(config.FieldReleaseDate, f.ReleaseDate.PropertyName, date)
	}

	if f.Series.Enabled {
		if series := seriesEntries(ub.Book.BookSeries); len(series) > 0 {
			m.add(config.FieldSeries, f.Series.PropertyName, series)
		}
	}

	var rawContributors []hardcover.Contributor
	if f.Authors.Enabled {
		rawContributors = fromSource(src.Authors, ub.Book.CachedContributors, ub.Edition.CachedContributors)
		if authors := extractAuthors(rawContributors); len(authors) > 0 {
			m.add(config.FieldAuthors, f.Authors.PropertyName, authors)
		}
	}

	if f.Contributors.Enabled {
		contributors := extractContributors(fromSource(src.Contributors, ub.Book.CachedContributors, ub.Edition.CachedContributors))
		if len(contributors) > 0 {
			m.add(config.FieldContributors, f.Contributors.PropertyName, contributors)
		}
	}

	if ub.Edition.Publisher != nil {
		if name := NormalizeText(ub.Edition.Publisher.Name); f.Publisher.Enabled && name != "" {
			m.add(config.FieldPublisher, f.Publisher.PropertyName, name)
		}
	}
	if f.ISBN10.Enabled && ub.Edition.ISBN10 != "" {
		m.add(config.FieldISBN10, f.ISBN10.PropertyName, ub.Edition.ISBN10)
	}
	if f.ISBN13.Enabled && ub.Edition.ISBN13 != "" {
		m.add(config.FieldISBN13, f.ISBN13.PropertyName, ub.Edition.ISBN13)
	}
	if f.URL.Enabled && ub.Book.Slug != "" {
		m.add(config.FieldURL, f.URL.PropertyName, bookURLPrefix+ub.Book.Slug)
	}

	if f.Genres.Enabled {
		var genres []string
		for _, t := range ub.Book.CachedTags[genreCategory] {
			if t.Tag != "" {
				genres = append(genres, t.Tag)
			}
		}
		if len(genres) > 0 {
			m.add(config.FieldGenres, f.Genres.PropertyName, genres)
		}
	}

	if f.Lists.Enabled {
		if names := lists[ub.BookID]; len(names) > 0 {
			m.add(config.FieldLists, f.Lists.PropertyName, slices.Clone(names))
		}
	}

	if f.Status.Enabled && ub.StatusID != nil {
		m.add(config.FieldStatus, f.Status.PropertyName, []string{b.statusLabel(*ub.StatusID)})
	}

	if f.Rating.Enabled && ub.Rating != nil {
		m.add(config.FieldRating, f.Rating.PropertyName, strconv.FormatFloat(*ub.Rating, 'f', -1, 64)+"/5")
	}

	if f.Review.Enabled {
		m.Body.Review = FormatReview(reviewText(ub))
	}

	if f.Quotes.Enabled {
		for _, j := range ub.Journals {
			if q := strings.TrimSpace(j.Entry); q != "" {
				m.Body.Quotes = append(m.Body.Quotes, q)
			}
		}
	}

	b.addActivity(m, ub.Reads)
	return m, rawContributors
}

func (b *Builder) statusLabel(code int) string {
	if label, ok := b.settings.StatusLabel(code); ok && label != "" {
		return label
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

func (b *Builder) addActivity(m *Metadata, reads []hardcover.Read) {
	f := &b.settings.Fields
	if len(reads) == 0 {
		return
	}

	sorted := slices.Clone(reads)
	slices.SortStableFunc(sorted, func(x, y hardcover.Read) int {
		return strings.Compare(deref(x.StartedAt), deref(y.StartedAt))
	})

	addSpan := func(field config.FieldKey, cfg config.ActivityDateFieldConfig, r hardcover.Read) {
		if !cfg.Enabled {
			return
		}
		if start := deref(r.StartedAt); start != "" {
			m.add(field, cfg.StartPropertyName, start)
		}
		if end := deref(r.FinishedAt); end != "" {
			m.add(field, cfg.EndPropertyName, end)
		}
	}
	addSpan(config.FieldFirstRead, f.FirstRead, sorted[0])
	addSpan(config.FieldLastRead, f.LastRead, sorted[len(sorted)-1])

	if f.TotalReads.Enabled {
		m.add(config.FieldTotalReads, f.TotalReads.PropertyName, len(sorted))
	}

	if f.ReadYears.Enabled {
		var years []string
		for _, r := range sorted {
			date := deref(r.FinishedAt)
			if date == "" {
				date = deref(r.StartedAt)
			}
			if y, ok := Year(date); ok {
				years = append(years, strconv.Itoa(y))
			}
		}
		slices.Sort(years)
		years = slices.Compact(years)
		if len(years) > 0 {
			m.add(config.FieldReadYears, f.ReadYears.PropertyName, years)
		}
	}
}

// Year extracts the year of an ISO-8601 date or timestamp.
func Year(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

func reviewText(ub hardcover.UserBook) string {
	if ub.Review != nil && strings.TrimSpace(*ub.Review) != "" {
		return *ub.Review
	}
	if ub.ReviewRaw != nil && strings.TrimSpace(*ub.ReviewRaw) != "" {
		return *ub.ReviewRaw
	}
	return ""
}

// nameAsRole detects the upstream quirk where a single contributor carries
// their own name as the contribution.
func nameAsRole(cs []hardcover.Contributor) bool {
	return len(cs) == 1 && cs[0].Contribution == cs[0].Author.Name
}

func extractAuthors(cs []hardcover.Contributor) []string {
	quirk := nameAsRole(cs)
	var out []string
	for _, c := range cs {
		if c.Contribution != "" && c.Contribution != authorRole && !quirk {
			continue
		}
		if name := NormalizeText(c.Author.Name); name != "" {
			out = append(out, name)
		}
		if len(out) == maxAuthors {
			break
		}
	}
	return out
}

func extractContributors(cs []hardcover.Contributor) []string {
	if nameAsRole(cs) {
		return nil
	}
	var out []string
	for _, c := range cs {
		if c.Contribution == "" || c.Contribution == authorRole {
			continue
		}
		name := NormalizeText(c.Author.Name)
		if name == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s)", name, capitalize(c.Contribution)))
		if len(out) == maxContributors {
			break
		}
	}
	return out
}

func seriesEntries(bs []hardcover.BookSeries) []string {
	var out []string
	for _, s := range bs {
		name := NormalizeText(s.Series.Name)
		if name == "" {
			continue
		}
		if s.Position != nil && *s.Position != 0 {
			name += " #" + strconv.FormatFloat(*s.Position, 'f', -1, 64)
		}
		out = append(out, name)
	}
	return out
}

// ListIndex maps each book id to the normalized, de-duplicated names of the
// lists containing it.
func ListIndex(lists []hardcover.List) map[int][]string {
	index := make(map[int][]string)
	for _, l := range lists {
		name := NormalizeText(l.Name)
		if name == "" {
			continue
		}
		for _, lb := range l.ListBooks {
			if !slices.Contains(index[lb.BookID], name) {
				index[lb.BookID] = append(index[lb.BookID], name)
			}
		}
	}
	return index
}

// fromSource selects the book or edition variant of a value.
func fromSource[T any](source string, book, edition T) T {
	if source == config.SourceBook {
		return book
	}
	return edition
}

func imageURL(img *hardcover.Image) string {
	if img == nil {
		return ""
	}
	return img.URL
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
