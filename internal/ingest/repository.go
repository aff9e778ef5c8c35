package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=ingest

// Repository persists sync runs and the incremental checkpoint.
type Repository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
	AddFailure(ctx context.Context, runID string, f Failure) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListFailures(ctx context.Context, runID string) ([]Failure, error)
	LoadCheckpoint(ctx context.Context) (string, error)
	SaveCheckpoint(ctx context.Context, ts string) error
	LoadIdentity(ctx context.Context) (*Identity, error)
	SaveIdentity(ctx context.Context, id Identity) error
}

const maxStoredRuns = 50

type storedRun struct {
	Run      `yaml:",inline"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type fileState struct {
	Checkpoint string      `json:"checkpoint" yaml:"checkpoint"`
	Identity   *Identity   `json:"identity,omitempty" yaml:"identity,omitempty"`
	Runs       []storedRun `json:"runs" yaml:"runs"`
}

// FileRepo keeps state in a single YAML (or .json) file. The whole file is
// rewritten on every change, so it suits one process at a time.
type FileRepo struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

func NewFileRepo(fs afero.Fs, path string) *FileRepo {
	return &FileRepo{fs: fs, path: path}
}

func (r *FileRepo) isJSON() bool {
	return strings.EqualFold(filepath.Ext(r.path), ".json")
}

func (r *FileRepo) load() (*fileState, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if os.IsNotExist(err) {
		return &fileState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", r.path, err)
	}

	st := &fileState{}
	if r.isJSON() {
		err = json.Unmarshal(data, st)
	} else {
		err = yaml.Unmarshal(data, st)
	}
	if err != nil {
		return nil, fmt.Errorf("decode state %s: %w", r.path, err)
	}
	return st, nil
}

func (r *FileRepo) save(st *fileState) error {
	var (
		data []byte
		err  error
	)
	if r.isJSON() {
		data, err = json.MarshalIndent(st, "", "  ")
	} else {
		data, err = yaml.Marshal(st)
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return r.fs.Rename(tmp, r.path)
}

func (r *FileRepo) modify(fn func(st *fileState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return r.save(st)
}

func (r *FileRepo) read() (*fileState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (st *fileState) find(id string) *storedRun {
	for i := range st.Runs {
		if st.Runs[i].ID == id {
			return &st.Runs[i]
		}
	}
	return nil
}

func (r *FileRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	id := uuid.NewString()
	err := r.modify(func(st *fileState) error {
		stored := storedRun{Run: *run}
		stored.ID = id
		st.Runs = append(st.Runs, stored)
		if n := len(st.Runs); n > maxStoredRuns {
			st.Runs = st.Runs[n-maxStoredRuns:]
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *FileRepo) UpdateRun(ctx context.Context, run *Run) error {
	return r.modify(func(st *fileState) error {
		stored := st.find(run.ID)
		if stored == nil {
			return fmt.Errorf("run %s not found", run.ID)
		}
		stored.Run = *run
		return nil
	})
}

func (r *FileRepo) AddFailure(ctx context.Context, runID string, f Failure) error {
	return r.modify(func(st *fileState) error {
		stored := st.find(runID)
		if stored == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		stored.Failures = append(stored.Failures, f)
		return nil
	})
}

// ListRuns returns the most recent runs first.
func (r *FileRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	st, err := r.read()
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(st.Runs))
	for _, s := range slices.Backward(st.Runs) {
		if limit > 0 && len(runs) == limit {
			break
		}
		runs = append(runs, s.Run)
	}
	return runs, nil
}

func (r *FileRepo) ListFailures(ctx context.Context, runID string) ([]Failure, error) {
	st, err := r.read()
	if err != nil {
		return nil, err
	}
	stored := st.find(runID)
	if stored == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return stored.Failures, nil
}

func (r *FileRepo) LoadCheckpoint(ctx context.Context) (string, error) {
	st, err := r.read()
	if err != nil {
		return "", err
	}
	return st.Checkpoint, nil
}

func (r *FileRepo) SaveCheckpoint(ctx context.Context, ts string) error {
	return r.modify(func(st *fileState) error {
		st.Checkpoint = ts
		return nil
	})
}

func (r *FileRepo) LoadIdentity(ctx context.Context) (*Identity, error) {
	st, err := r.read()
	if err != nil {
		return nil, err
	}
	return st.Identity, nil
}

func (r *FileRepo) SaveIdentity(ctx context.Context, id Identity) error {
	return r.modify(func(st *fileState) error {
		st.Identity = &id
		return nil
	})
}
