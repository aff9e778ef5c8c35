package hardcover

// UserBook is one entry of the user's library as returned by user_books.
// BookID is stable across edition changes.
type UserBook struct {
	BookID    int            `json:"book_id"`
	UpdatedAt string         `json:"updated_at"`
	Rating    *float64       `json:"rating"`
	StatusID  *int           `json:"status_id"`
	Review    *string        `json:"review"`
	ReviewRaw *string        `json:"review_raw"`
	Book      Book           `json:"book"`
	Edition   Edition        `json:"edition"`
	Reads     []Read         `json:"user_book_reads"`
	Journals  []JournalEntry `json:"reading_journals"`
}

// Book is the canonical work.
type Book struct {
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	ReleaseDate        string           `json:"release_date"`
	Slug               string           `json:"slug"`
	CachedImage        *Image           `json:"cached_image"`
	CachedContributors []Contributor    `json:"cached_contributors"`
	BookSeries         []BookSeries     `json:"book_series"`
	CachedTags         map[string][]Tag `json:"cached_tags"`
}

// Edition is the specific printing the user tracks.
type Edition struct {
	Title              string        `json:"title"`
	ReleaseDate        string        `json:"release_date"`
	CachedImage        *Image        `json:"cached_image"`
	CachedContributors []Contributor `json:"cached_contributors"`
	Publisher          *Publisher    `json:"publisher"`
	ISBN10             string        `json:"isbn_10"`
	ISBN13             string        `json:"isbn_13"`
}

type Image struct {
	URL string `json:"url"`
}

type Publisher = Named

type Named struct {
	Name string `json:"name"`
}

type Contributor struct {
	Author       Named  `json:"author"`
	Contribution string `json:"contribution"`
}

type BookSeries struct {
	Series   Named    `json:"series"`
	Position *float64 `json:"position"`
}

type Tag struct {
	Tag string `json:"tag"`
}

// Read is one reading session. Either end may be null.
type Read struct {
	StartedAt  *string `json:"started_at"`
	FinishedAt *string `json:"finished_at"`
}

type JournalEntry struct {
	Entry string `json:"entry"`
}

// List is a named user collection.
type List struct {
	Name      string     `json:"name"`
	ListBooks []ListBook `json:"list_books"`
}

type ListBook struct {
	BookID int `json:"book_id"`
}

// SyncInfo is the combined identity, count and lists lookup.
type SyncInfo struct {
	UserID     int
	BooksCount int
	Lists      []List
}

// PageParams selects one page of the library.
type PageParams struct {
	UserID       int
	Offset       int
	Limit        int
	UpdatedAfter string
	StatusIDs    []int
}
