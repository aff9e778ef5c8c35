// Package vault is the document store the sync engine reads and writes notes
// through: plain text files addressed by slash-separated vault paths, plus a
// frontmatter codec that keeps key order.
package vault

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrNotFound = errors.New("vault: not found")
	ErrExists   = errors.New("vault: already exists")
)

// Entry is one child of a listed folder.
type Entry struct {
	Path  string
	IsDir bool
}

// Store is the document capability consumed by the note reconciler.
// Create, Rename and CreateFolder fail with ErrExists when the target is
// already present; Read and Write fail with ErrNotFound when it is missing.
type Store interface {
	Read(p string) (string, error)
	Write(p, content string) error
	Create(p, content string) error
	Rename(from, to string) error
	Remove(p string) error
	CreateFolder(p string) error
	Exists(p string) (bool, error)
	List(folder string) ([]Entry, error)
}

// Clean normalizes a vault path: forward slashes, no leading or trailing
// separator, "" for the vault root.
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Join cleans and joins path elements, skipping empty ones.
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

// Dir returns the parent folder of p, "" for files at the root.
func Dir(p string) string {
	d := path.Dir(Clean(p))
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// Base returns the last element of p.
func Base(p string) string {
	return path.Base(Clean(p))
}
