package ingest

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepo(t *testing.T) {
	for _, name := range []string{".hcsync/state.yaml", ".hcsync/state.json"} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			repo := NewFileRepo(fs, name)
			ctx := t.Context()

			checkpoint, err := repo.LoadCheckpoint(ctx)
			require.NoError(t, err)
			assert.Empty(t, checkpoint)

			run := &Run{Status: StatusRunning, Trigger: TriggerCLI, StartedAt: startedAt}
			id, err := repo.CreateRun(ctx, run)
			require.NoError(t, err)
			require.NotEmpty(t, id)

			require.NoError(t, repo.AddFailure(ctx, id, Failure{BookID: 3, Title: "Emma", Error: "boom"}))

			run.ID = id
			run.Status = StatusPartial
			run.Failed = 1
			finished := startedAt.Add(time.Minute)
			run.FinishedAt = &finished
			require.NoError(t, repo.UpdateRun(ctx, run))
			require.NoError(t, repo.SaveCheckpoint(ctx, "2026-10-15T09:30:00.000Z"))
			require.NoError(t, repo.SaveIdentity(ctx, Identity{UserID: 42, BooksCount: 7, UpdatedAt: startedAt}))

			// A fresh repo reads what the first one wrote.
			reopened := NewFileRepo(fs, name)

			runs, err := reopened.ListRuns(ctx, 10)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, id, runs[0].ID)
			assert.Equal(t, StatusPartial, runs[0].Status)
			assert.Equal(t, 1, runs[0].Failed)
			require.NotNil(t, runs[0].FinishedAt)
			assert.True(t, runs[0].FinishedAt.Equal(finished))

			failures, err := reopened.ListFailures(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []Failure{{BookID: 3, Title: "Emma", Error: "boom"}}, failures)

			checkpoint, err = reopened.LoadCheckpoint(ctx)
			require.NoError(t, err)
			assert.Equal(t, "2026-10-15T09:30:00.000Z", checkpoint)

			identity, err := reopened.LoadIdentity(ctx)
			require.NoError(t, err)
			require.NotNil(t, identity)
			assert.Equal(t, 42, identity.UserID)
			assert.Equal(t, 7, identity.BooksCount)
		})
	}
}

func TestFileRepo_ListRunsNewestFirst(t *testing.T) {
	repo := NewFileRepo(afero.NewMemMapFs(), "state.yaml")
	ctx := t.Context()

	var ids []string
	for i := range maxStoredRuns + 5 {
		id, err := repo.CreateRun(ctx, &Run{Status: StatusCompleted, StartedAt: startedAt.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, maxStoredRuns)
	assert.Equal(t, ids[len(ids)-1], runs[0].ID)
	assert.Equal(t, ids[5], runs[len(runs)-1].ID)

	runs, err = repo.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	_, err = repo.ListFailures(ctx, ids[0])
	assert.ErrorContains(t, err, "not found")
}

func TestFileRepo_UpdateUnknownRun(t *testing.T) {
	repo := NewFileRepo(afero.NewMemMapFs(), "state.yaml")
	err := repo.UpdateRun(t.Context(), &Run{ID: "missing"})
	assert.ErrorContains(t, err, "run missing not found")
}

func TestFileRepo_CorruptState(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.yaml", []byte("runs: {not: [a list"), 0o644))

	_, err := NewFileRepo(fs, "state.yaml").LoadCheckpoint(t.Context())
	assert.ErrorContains(t, err, "decode state")
}
