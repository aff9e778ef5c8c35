package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"hardcoversync/internal/config"
	"hardcoversync/internal/logging"
	"hardcoversync/internal/metadata"
	"hardcoversync/internal/metrics"
	"hardcoversync/internal/notes"
	"hardcoversync/internal/platform/hardcover"
	"hardcoversync/internal/vault"
)

const (
	// yieldEvery books the loop pauses briefly so file watchers on the vault
	// can keep up.
	yieldEvery = 50
	yieldPause = 10 * time.Millisecond

	checkpointLayout = "2006-01-02T15:04:05.000Z"
)

type HardcoverClient interface {
	FetchSyncInfo(ctx context.Context, includeLists bool, statusIDs []int) (*hardcover.SyncInfo, error)
	FetchLibrary(ctx context.Context, p hardcover.LibraryParams) ([]hardcover.UserBook, error)
}

// Service runs sync passes. At most one pass runs at a time.
type Service struct {
	client   HardcoverClient
	store    vault.Store
	repo     Repository
	settings *config.Settings

	running atomic.Bool
	now     func() time.Time
	pause   func(ctx context.Context) error
}

func NewService(client HardcoverClient, store vault.Store, repo Repository, settings *config.Settings) *Service {
	return &Service{
		client:   client,
		store:    store,
		repo:     repo,
		settings: settings,
		now:      time.Now,
		pause:    sleep,
	}
}

func sleep(ctx context.Context) error {
	t := time.NewTimer(yieldPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Running reports whether a pass is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Validate checks what can be checked without the network or the state store.
func (s *Service) Validate() error {
	folder := strings.Trim(strings.TrimSpace(s.settings.TargetFolder), "/")
	if folder == "" || folder == "." {
		return ErrInvalidTargetFolder
	}
	if !ValidCheckpoint(s.settings.LastSyncTimestamp) {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpoint, s.settings.LastSyncTimestamp)
	}
	return nil
}

// Checkpoint returns the updated_after value the next pass would use. The
// stored checkpoint wins over last_sync_timestamp from the settings.
func (s *Service) Checkpoint(ctx context.Context) (string, error) {
	ts, err := s.repo.LoadCheckpoint(ctx)
	if err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}
	if ts == "" {
		ts = s.settings.LastSyncTimestamp
	}
	if !ValidCheckpoint(ts) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCheckpoint, ts)
	}
	return ts, nil
}

// Run performs one sync pass. Failures of individual books are recorded on
// the run and do not fail the pass, but they keep the checkpoint where it
// was so the next pass looks at the same window again.
func (s *Service) Run(ctx context.Context, opts Options) (run *Run, err error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	updatedAfter := ""
	if !opts.Full {
		if updatedAfter, err = s.Checkpoint(ctx); err != nil {
			return nil, err
		}
	}

	limit := opts.DebugLimit
	if limit <= 0 {
		limit = s.settings.DebugLimit
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerCLI
	}

	run = &Run{
		Status:       StatusRunning,
		Trigger:      opts.Trigger,
		StartedAt:    s.now().UTC(),
		UpdatedAfter: updatedAfter,
		DebugLimit:   limit,
	}
	runID, rErr := s.repo.CreateRun(ctx, run)
	if rErr != nil {
		return nil, fmt.Errorf("create run: %w", rErr)
	}
	run.ID = runID

	defer func() {
		now := s.now().UTC()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}

		switch {
		case run.Error != "":
			run.Status = StatusFailed
		case run.Failed > 0:
			run.Status = StatusPartial
		default:
			run.Status = StatusCompleted
		}
		if updateErr := s.repo.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
			logging.Error().Err(updateErr).Str("run_id", run.ID).Msg("failed to update sync run")
		}

		var advanced time.Time
		if run.Checkpoint != "" {
			advanced = run.StartedAt
		}
		metrics.RecordSyncRun(run.Status, now.Sub(run.StartedAt), advanced)

		logging.Info().
			Str("run_id", run.ID).
			Str("status", run.Status).
			Int("created", run.Created).
			Int("updated", run.Updated).
			Int("unchanged", run.Unchanged).
			Int("moved", run.Moved).
			Int("merged", run.Merged).
			Int("failed", run.Failed).
			Dur("took", now.Sub(run.StartedAt)).
			Msg("sync finished")
	}()

	err = s.sync(ctx, run)
	return run, err
}

func (s *Service) sync(ctx context.Context, run *Run) error {
	includeLists := s.settings.Fields.Lists.Enabled
	info, err := s.client.FetchSyncInfo(ctx, includeLists, s.settings.StatusFilter)
	if err != nil {
		return err
	}
	run.UserID = info.UserID

	identity := Identity{UserID: info.UserID, BooksCount: info.BooksCount, UpdatedAt: s.now().UTC()}
	if err := s.repo.SaveIdentity(ctx, identity); err != nil {
		logging.Warn().Err(err).Msg("failed to cache identity")
	}

	total := info.BooksCount
	if run.DebugLimit > 0 {
		total = min(run.DebugLimit, total)
	}
	run.BooksTotal = total

	logging.Info().
		Str("run_id", run.ID).
		Int("user_id", info.UserID).
		Int("books", total).
		Int("debug_limit", run.DebugLimit).
		Str("updated_after", run.UpdatedAfter).
		Msg("sync started")

	if total == 0 {
		logging.Info().Ints("status_filter", s.settings.StatusFilter).Msg("no books found in library")
		return nil
	}

	var lists map[int][]string
	if includeLists {
		lists = metadata.ListIndex(info.Lists)
	}

	index, err := notes.BuildIndex(ctx, s.store, s.settings.TargetFolder)
	if err != nil {
		return fmt.Errorf("index notes: %w", err)
	}
	logging.Debug().Int("notes", index.Len()).Msg("indexed existing notes")

	books, err := s.client.FetchLibrary(ctx, hardcover.LibraryParams{
		UserID:       info.UserID,
		Total:        total,
		UpdatedAfter: run.UpdatedAfter,
		StatusIDs:    s.settings.StatusFilter,
		OnProgress: func(fetched, total int) {
			logging.Debug().Int("fetched", fetched).Int("total", total).Msg("fetching books")
		},
	})
	if err != nil {
		return err
	}
	run.BooksFetched = len(books)

	builder := metadata.NewBuilder(s.settings)
	reconciler := notes.NewReconciler(s.settings, s.store, index)
	for i, ub := range books {
		s.processBook(ctx, run, builder, reconciler, ub, lists)

		if (i+1)%yieldEvery == 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
	}

	switch {
	case run.Failed > 0:
		logging.Warn().Int("failed", run.Failed).Msg("checkpoint not advanced, failed books will be retried")
	case total < info.BooksCount:
		logging.Info().
			Int("processed", total).
			Int("books", info.BooksCount).
			Msg("checkpoint not advanced, debug limit left books unprocessed")
	default:
		ts := run.StartedAt.Format(checkpointLayout)
		if err := s.repo.SaveCheckpoint(ctx, ts); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		run.Checkpoint = ts
	}

	if s.settings.Grouping.Enabled && s.settings.Grouping.AutoOrganize {
		s.organize(ctx, run)
	}
	return nil
}

func (s *Service) processBook(ctx context.Context, run *Run, builder *metadata.Builder, reconciler *notes.Reconciler, ub hardcover.UserBook, lists map[int][]string) {
	m, raw := builder.Build(ub, lists)
	res, err := reconciler.Reconcile(m, raw)
	if err != nil {
		run.Failed++
		f := Failure{BookID: ub.BookID, Title: failureTitle(s.settings, ub), Error: err.Error()}
		logging.Warn().Err(err).Int("book_id", f.BookID).Str("title", f.Title).Msg("failed to process book")
		if addErr := s.repo.AddFailure(ctx, run.ID, f); addErr != nil {
			logging.Error().Err(addErr).Int("book_id", f.BookID).Msg("failed to record book failure")
		}
		metrics.RecordBook("failed")
		return
	}

	result := "unchanged"
	switch res.Kind {
	case notes.KindNew:
		run.Created++
		result = "created"
	case notes.KindSamePath:
		if res.Changed {
			run.Updated++
			result = "updated"
		} else {
			run.Unchanged++
		}
	case notes.KindDifferentPath:
		run.Moved++
		result = "renamed"
	case notes.KindCollision:
		run.Merged++
		result = "merged"
	}
	metrics.RecordBook(result)
}

func (s *Service) organize(ctx context.Context, run *Run) {
	res, err := notes.NewReorganizer(s.settings, s.store).Run(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("auto-organize failed")
		return
	}
	run.Reorganized = res.Moved
	if res.Moved > 0 || res.Failed > 0 {
		logging.Info().Int("moved", res.Moved).Int("failed", res.Failed).Msg("auto-organized notes")
	}
}

func failureTitle(s *config.Settings, ub hardcover.UserBook) string {
	title := ub.Edition.Title
	if s.DataSources.Title == config.SourceBook {
		title = ub.Book.Title
	}
	if title == "" {
		return "Unknown"
	}
	return title
}
