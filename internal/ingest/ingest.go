package ingest

import (
	"time"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusPartial   = "PARTIAL"
	StatusFailed    = "FAILED"
)

const (
	TriggerCLI      = "cli"
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
)

// Run is one sync pass as recorded in the state store.
type Run struct {
	ID           string     `json:"id" yaml:"id"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status       string     `json:"status" yaml:"status"` // RUNNING, COMPLETED, PARTIAL, FAILED
	Trigger      string     `json:"trigger" yaml:"trigger"`
	UserID       int        `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	UpdatedAfter string     `json:"updated_after,omitempty" yaml:"updated_after,omitempty"`
	DebugLimit   int        `json:"debug_limit,omitempty" yaml:"debug_limit,omitempty"`
	BooksTotal   int        `json:"books_total" yaml:"books_total"`
	BooksFetched int        `json:"books_fetched" yaml:"books_fetched"`
	Created      int        `json:"created" yaml:"created"`
	Updated      int        `json:"updated" yaml:"updated"`
	Unchanged    int        `json:"unchanged" yaml:"unchanged"`
	Moved        int        `json:"moved" yaml:"moved"`
	Merged       int        `json:"merged" yaml:"merged"`
	Failed       int        `json:"failed" yaml:"failed"`
	Reorganized  int        `json:"reorganized,omitempty" yaml:"reorganized,omitempty"`
	Checkpoint   string     `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Processed counts books that reached a note, whatever the outcome.
func (r *Run) Processed() int {
	return r.Created + r.Updated + r.Unchanged + r.Moved + r.Merged
}

// Failure is a book that could not be turned into a note.
type Failure struct {
	BookID int    `json:"book_id" yaml:"book_id"`
	Title  string `json:"title" yaml:"title"`
	Error  string `json:"error" yaml:"error"`
}

// Identity caches what the last sync-info call resolved.
type Identity struct {
	UserID     int       `json:"user_id" yaml:"user_id"`
	BooksCount int       `json:"books_count" yaml:"books_count"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// Options tweak a single pass.
type Options struct {
	Trigger string
	// DebugLimit caps the number of books processed. Zero falls back to the
	// configured debug_limit.
	DebugLimit int
	// Full ignores the stored checkpoint and re-examines the whole library.
	Full bool
}
