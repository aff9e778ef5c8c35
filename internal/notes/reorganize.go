package notes

import (
	"context"
	"errors"

	"hardcoversync/internal/config"
	"hardcoversync/internal/logging"
	"hardcoversync/internal/vault"
)

// MoveFailure records a note the reorganizer could not move.
type MoveFailure struct {
	Path string
	Err  error
}

type ReorganizeResult struct {
	Moved int
	// Skipped counts authorless notes whose folder is left to the next sync.
	Skipped  int
	Failed   int
	Failures []MoveFailure
}

// Reorganizer moves existing book notes into the folders the current
// grouping settings would give them. Filenames are kept.
type Reorganizer struct {
	settings *config.Settings
	store    vault.Store
	paths    *PathBuilder
}

func NewReorganizer(settings *config.Settings, store vault.Store) *Reorganizer {
	return &Reorganizer{settings: settings, store: store, paths: NewPathBuilder(settings)}
}

type plannedMove struct {
	from, to string
}

// Run computes every move first, then performs them. A failed move is
// counted and does not stop the others.
func (r *Reorganizer) Run(ctx context.Context) (*ReorganizeResult, error) {
	var moves []plannedMove
	skipped := 0
	f := &r.settings.Fields

	err := walkNotes(ctx, r.store, r.settings.TargetFolder, func(p string, doc *vault.Document) {
		if _, ok := doc.Frontmatter.Int(config.BookIDProperty); !ok {
			return
		}
		authors := stripAll(doc.Frontmatter.Strings(f.Authors.PropertyName))
		if r.paths.NeedsContributors(authors) {
			skipped++
			logging.Debug().Str("path", p).Msg("reorganize: no authors, keeping folder")
			return
		}
		series := stripAll(doc.Frontmatter.Strings(f.Series.PropertyName))

		dir := ""
		if r.settings.Grouping.Enabled {
			dir = r.paths.Directory(authors, series, nil)
		}
		to := vault.Join(r.settings.TargetFolder, dir, vault.Base(p))
		if to != p {
			moves = append(moves, plannedMove{from: p, to: to})
		}
	})
	if err != nil {
		return nil, err
	}

	res := &ReorganizeResult{Skipped: skipped}
	for _, mv := range moves {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.moveOne(mv); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, MoveFailure{Path: mv.from, Err: err})
			logging.Warn().Err(err).Str("from", mv.from).Str("to", mv.to).Msg("reorganize: move failed")
			continue
		}
		res.Moved++
	}
	logging.Info().Int("moved", res.Moved).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("reorganize finished")
	return res, nil
}

func (r *Reorganizer) moveOne(mv plannedMove) error {
	if dir := vault.Dir(mv.to); dir != "" {
		if err := r.store.CreateFolder(dir); err != nil && !errors.Is(err, vault.ErrExists) {
			return err
		}
	}
	return r.store.Rename(mv.from, mv.to)
}

func stripAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = StripWikilink(v)
	}
	return out
}
