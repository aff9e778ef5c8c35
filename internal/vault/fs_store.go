package vault

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/afero"
)

// FSStore implements Store on an afero filesystem rooted at the vault.
type FSStore struct {
	fs afero.Fs
}

func NewFSStore(fs afero.Fs) *FSStore {
	return &FSStore{fs: fs}
}

// NewOSStore opens the vault directory root on the host filesystem.
func NewOSStore(root string) *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), root))
}

func (s *FSStore) Read(p string) (string, error) {
	b, err := afero.ReadFile(s.fs, Clean(p))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", err
	}
	return string(b), nil
}

func (s *FSStore) Write(p, content string) error {
	ok, err := s.Exists(p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return afero.WriteFile(s.fs, Clean(p), []byte(content), 0o644)
}

func (s *FSStore) Create(p, content string) error {
	ok, err := s.Exists(p)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	return afero.WriteFile(s.fs, Clean(p), []byte(content), 0o644)
}

func (s *FSStore) Rename(from, to string) error {
	ok, err := s.Exists(to)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, to)
	}
	if err := s.fs.Rename(Clean(from), Clean(to)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, from)
		}
		return err
	}
	return nil
}

func (s *FSStore) Remove(p string) error {
	if err := s.fs.Remove(Clean(p)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return err
	}
	return nil
}

func (s *FSStore) CreateFolder(p string) error {
	ok, err := afero.DirExists(s.fs, Clean(p))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	return s.fs.MkdirAll(Clean(p), 0o755)
}

func (s *FSStore) Exists(p string) (bool, error) {
	return afero.Exists(s.fs, Clean(p))
}

// List returns the direct children of folder sorted by path. A missing
// folder lists as empty.
func (s *FSStore) List(folder string) ([]Entry, error) {
	dir := Clean(folder)
	if dir == "" {
		dir = "."
	}
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, Entry{
			Path:  Join(folder, fi.Name()),
			IsDir: fi.IsDir(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// NewMemStore returns an in-memory vault, used by tests and dry runs.
func NewMemStore() *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewMemMapFs(), "/vault"))
}
