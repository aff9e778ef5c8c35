package notes

import (
	"context"
	"strings"
	"sync"

	"hardcoversync/internal/config"
	"hardcoversync/internal/logging"
	"hardcoversync/internal/vault"
)

// Index maps book ids to note paths. It is built with one scan of the target
// folder and kept current by the reconciler as notes move.
type Index struct {
	mu     sync.RWMutex
	byBook map[int]string
}

func NewIndex() *Index {
	return &Index{byBook: make(map[int]string)}
}

// BuildIndex walks folder recursively and records every note carrying a book
// id. Unreadable notes are skipped. When two notes claim the same id the
// first in path order wins.
func BuildIndex(ctx context.Context, store vault.Store, folder string) (*Index, error) {
	idx := NewIndex()
	err := walkNotes(ctx, store, folder, func(p string, doc *vault.Document) {
		id, ok := doc.Frontmatter.Int(config.BookIDProperty)
		if !ok {
			return
		}
		if prev, dup := idx.byBook[id]; dup {
			logging.Warn().Int("book_id", id).Str("kept", prev).Str("ignored", p).Msg("duplicate book id in vault")
			return
		}
		idx.byBook[id] = p
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *Index) Lookup(bookID int) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.byBook[bookID]
	return p, ok
}

func (x *Index) Put(bookID int, p string) {
	x.mu.Lock()
	x.byBook[bookID] = p
	x.mu.Unlock()
}

func (x *Index) Delete(bookID int) {
	x.mu.Lock()
	delete(x.byBook, bookID)
	x.mu.Unlock()
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byBook)
}

// walkNotes calls fn for every parseable markdown file under folder.
func walkNotes(ctx context.Context, store vault.Store, folder string, fn func(p string, doc *vault.Document)) error {
	entries, err := store.List(folder)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir {
			if err := walkNotes(ctx, store, e.Path, fn); err != nil {
				return err
			}
			continue
		}
		if !strings.HasSuffix(e.Path, noteExt) {
			continue
		}
		doc, err := vault.ReadDocument(store, e.Path)
		if err != nil {
			logging.Warn().Err(err).Str("path", e.Path).Msg("skipping unreadable note")
			continue
		}
		fn(e.Path, doc)
	}
	return nil
}
