package config

// FieldKey names one configurable note field. The set is closed.
type FieldKey string

const (
	FieldTitle        FieldKey = "title"
	FieldDescription  FieldKey = "description"
	FieldCover        FieldKey = "cover"
	FieldReleaseDate  FieldKey = "releaseDate"
	FieldSeries       FieldKey = "series"
	FieldAuthors      FieldKey = "authors"
	FieldContributors FieldKey = "contributors"
	FieldPublisher    FieldKey = "publisher"
	FieldISBN10       FieldKey = "isbn10"
	FieldISBN13       FieldKey = "isbn13"
	FieldURL          FieldKey = "url"
	FieldGenres       FieldKey = "genres"
	FieldLists        FieldKey = "lists"
	FieldStatus       FieldKey = "status"
	FieldRating       FieldKey = "rating"
	FieldReview       FieldKey = "review"
	FieldQuotes       FieldKey = "quotes"
	FieldFirstRead    FieldKey = "firstRead"
	FieldLastRead     FieldKey = "lastRead"
	FieldTotalReads   FieldKey = "totalReads"
	FieldReadYears    FieldKey = "readYears"
)

// BookIDProperty is the frontmatter key tying a note to its remote book. New
// notes carry it first. It cannot be renamed.
const BookIDProperty = "hardcoverBookId"

// CanonicalOrder is the order managed frontmatter keys are written in.
var CanonicalOrder = []FieldKey{
	FieldTitle,
	FieldDescription,
	FieldCover,
	FieldReleaseDate,
	FieldSeries,
	FieldAuthors,
	FieldContributors,
	FieldPublisher,
	FieldISBN10,
	FieldISBN13,
	FieldURL,
	FieldGenres,
	FieldLists,
	FieldStatus,
	FieldRating,
	FieldReview,
	FieldQuotes,
	FieldFirstRead,
	FieldLastRead,
	FieldTotalReads,
	FieldReadYears,
}

// IsActivityDate reports whether the field is written as a start/end pair.
func (k FieldKey) IsActivityDate() bool {
	return k == FieldFirstRead || k == FieldLastRead
}

// Field returns the plain configuration of key. Activity date fields are
// reported with their enabled flag and base property name.
func (f *FieldsSettings) Field(key FieldKey) FieldConfig {
	switch key {
	case FieldTitle:
		return f.Title
	case FieldDescription:
		return f.Description
	case FieldCover:
		return f.Cover
	case FieldReleaseDate:
		return f.ReleaseDate
	case FieldSeries:
		return f.Series
	case FieldAuthors:
		return f.Authors
	case FieldContributors:
		return f.Contributors
	case FieldPublisher:
		return f.Publisher
	case FieldISBN10:
		return f.ISBN10
	case FieldISBN13:
		return f.ISBN13
	case FieldURL:
		return f.URL
	case FieldGenres:
		return f.Genres
	case FieldLists:
		return f.Lists
	case FieldStatus:
		return f.Status
	case FieldRating:
		return f.Rating
	case FieldReview:
		return f.Review
	case FieldQuotes:
		return f.Quotes
	case FieldFirstRead, FieldLastRead:
		a, _ := f.Activity(key)
		return FieldConfig{Enabled: a.Enabled, PropertyName: a.PropertyName}
	case FieldTotalReads:
		return f.TotalReads
	case FieldReadYears:
		return f.ReadYears
	}
	return FieldConfig{}
}

// Activity returns the start/end configuration of an activity date field.
func (f *FieldsSettings) Activity(key FieldKey) (ActivityDateFieldConfig, bool) {
	switch key {
	case FieldFirstRead:
		return f.FirstRead, true
	case FieldLastRead:
		return f.LastRead, true
	}
	return ActivityDateFieldConfig{}, false
}

// PropertyNames lists every frontmatter key owned by the field.
func (f *FieldsSettings) PropertyNames(key FieldKey) []string {
	if a, ok := f.Activity(key); ok {
		return []string{a.PropertyName, a.StartPropertyName, a.EndPropertyName}
	}
	return []string{f.Field(key).PropertyName}
}

// ManagedPropertyNames returns the book id key followed by every configured
// property name in canonical order, enabled or not.
func (f *FieldsSettings) ManagedPropertyNames() []string {
	names := []string{BookIDProperty}
	for _, key := range CanonicalOrder {
		names = append(names, f.PropertyNames(key)...)
	}
	return names
}
