package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/goccy/go-json"

	"hardcoversync/internal/config"
	"hardcoversync/internal/platform/hardcover"
)

// Settings returns the default settings with grouping off and every optional
// field switched on, rooted at folder.
func Settings(folder string) *config.Settings {
	s := config.Default()
	s.TargetFolder = folder
	s.Fields.ISBN10.Enabled = true
	s.Fields.ISBN13.Enabled = true
	s.Fields.Lists.Enabled = true
	s.Fields.Quotes.Enabled = true
	s.Fields.ReadYears.Enabled = true
	return &s
}

func Ptr[T any](v T) *T { return &v }

func Contributor(name, role string) hardcover.Contributor {
	return hardcover.Contributor{Author: hardcover.Named{Name: name}, Contribution: role}
}

// Murderbot is a fully populated library entry.
func Murderbot() hardcover.UserBook {
	return hardcover.UserBook{
		BookID:    427,
		UpdatedAt: "2026-03-01T10:00:00Z",
		Rating:    Ptr(4.5),
		StatusID:  Ptr(3),
		Review:    Ptr("<p>Loved it.</p><p>Murderbot is &quot;great&quot;.</p>"),
		Book: hardcover.Book{
			Title:       "All Systems Red",
			Description: "A murderous android\\ndiscovers itself.",
			ReleaseDate: "2017-05-02",
			Slug:        "all-systems-red",
			CachedImage: &hardcover.Image{URL: "https://img.example/book.jpg"},
			CachedContributors: []hardcover.Contributor{
				Contributor("Martha Wells", ""),
			},
			BookSeries: []hardcover.BookSeries{
				{Series: hardcover.Named{Name: "The Murderbot Diaries"}, Position: Ptr(1.0)},
			},
			CachedTags: map[string][]hardcover.Tag{
				"Genre": {{Tag: "Science Fiction"}, {Tag: "Fiction"}},
				"Mood":  {{Tag: "adventurous"}},
			},
		},
		Edition: hardcover.Edition{
			Title:       "All Systems Red",
			ReleaseDate: "2017-05-02",
			CachedImage: &hardcover.Image{URL: "https://img.example/edition.jpg"},
			CachedContributors: []hardcover.Contributor{
				Contributor("Martha Wells", ""),
				Contributor("Stefano Cresti", "translator"),
			},
			Publisher: &hardcover.Publisher{Name: "Tor.com"},
			ISBN10:    "0765397536",
			ISBN13:    "9780765397539",
		},
		Reads: []hardcover.Read{
			{StartedAt: Ptr("2024-02-01"), FinishedAt: Ptr("2024-02-10")},
			{StartedAt: Ptr("2019-07-03"), FinishedAt: Ptr("2019-07-09")},
		},
		Journals: []hardcover.JournalEntry{
			{Entry: "I could have become a mass murderer."},
		},
	}
}

// Minimal is a library entry carrying only ids and titles.
func Minimal(id int, title string) hardcover.UserBook {
	return hardcover.UserBook{
		BookID:  id,
		Book:    hardcover.Book{Title: title},
		Edition: hardcover.Edition{Title: title},
	}
}

// NewRequest creates a request with an optional JSON body.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorded JSON envelope.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	b, _ := io.ReadAll(result.Body)
	var body map[string]any
	if len(b) > 0 {
		_ = json.Unmarshal(b, &body)
	}
	return RecordResponse{Code: result.StatusCode, Header: result.Header, Body: body}
}
