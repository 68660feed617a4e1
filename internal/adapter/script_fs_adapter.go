// Package adapter contains infrastructure adapters for the labtest CLI.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "labtest.dev/pkg/labtest/internal/model"
)

// ScriptFSAdapter abstracts filesystem operations the domain layer relies
// on when scanning script directories and writing generated artifacts. It
// hides direct `os` access so workflow logic can be tested without
// touching the disk.
type ScriptFSAdapter interface {
	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFileAtomic writes content through a temp file in the target
	// directory followed by a rename, so concurrent readers never observe
	// a partial file.
	WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path so the domain can check
	// existence or distinguish files from directories.
	FileInfo(path m.Path) (os.FileInfo, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path, perm os.FileMode) error

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type into the domain
// layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalScriptFSAdapter is the concrete ScriptFSAdapter backed by the os
// package.
type LocalScriptFSAdapter struct{}

// NewLocalScriptFSAdapter constructs a LocalScriptFSAdapter ready to be
// wired into the workflow.
func NewLocalScriptFSAdapter() *LocalScriptFSAdapter {
	return &LocalScriptFSAdapter{}
}

// Walk iterates over files under root, optionally descending into
// subdirectories.
func (a *LocalScriptFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalScriptFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFileAtomic writes content to a temp file next to the target and
// renames it into place.
func (a *LocalScriptFSAdapter) WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(string(path))

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(string(path))+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, string(path)); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalScriptFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// MkdirAll creates the directory tree.
func (a *LocalScriptFSAdapter) MkdirAll(path m.Path, perm os.FileMode) error {
	return os.MkdirAll(string(path), perm)
}

// JoinPath joins path elements into a single path.
func (a *LocalScriptFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

// IsScriptFile reports whether a path names a runner script (a .ps1 file
// that is not itself a generated test).
func IsScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ps1") &&
		!IsTestFile(path)
}

// IsTestFile reports whether a path names a generated test file.
func IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))

	return strings.HasSuffix(base, ".tests.ps1")
}
