// Package pkg is a package that provides utilities for labtest.
package pkg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Journal is a generic append-only store of items of type T backed by a
// JSON-lines file. Appends are serialized with a mutex so concurrent
// generator runs cannot interleave partial records.
type Journal[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type journalImpl[T any] struct {
	path    string
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
	length  uint64
}

// OpenJournal opens (or creates) the journal at path and positions it for
// appending. Existing records are counted but not loaded.
func OpenJournal[T any](path string) (Journal[T], error) {
	// #nosec G304 - path comes from tool configuration, not remote input
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		slog.Error("failed to open journal", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	length, err := countLines(path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &journalImpl[T]{
		path:    path,
		file:    file,
		encoder: json.NewEncoder(file),
		length:  length,
	}, nil
}

// Append implements Journal.
func (j *journalImpl[T]) Append(item T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", j.path, "index", j.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	j.length++
	slog.Debug("appended item", "path", j.path, "index", j.length-1)

	return nil
}

// AppendBatch implements Journal.
func (j *journalImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := j.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Len implements Journal.
func (j *journalImpl[T]) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Path implements Journal.
func (j *journalImpl[T]) Path() string {
	return j.path
}

// Get implements Journal.
func (j *journalImpl[T]) Get(index uint64) (T, error) {
	var found T

	err := j.Range(func(i uint64, item T) error {
		if i == index {
			found = item
			return errStopRange
		}

		return nil
	})

	if err == nil {
		var zero T
		return zero, fmt.Errorf("index %d out of range", index)
	}

	if err != errStopRange {
		var zero T
		return zero, err
	}

	return found, nil
}

// Range implements Journal. It reads the file from the start under the
// lock, so appends from other goroutines are excluded during iteration.
func (j *journalImpl[T]) Range(f func(index uint64, item T) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// #nosec G304 - path comes from tool configuration, not remote input
	reader, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("failed to open journal for reading: %w", err)
	}

	defer func() { _ = reader.Close() }()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var index uint64

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			slog.Error("failed to decode item", "path", j.path, "index", index, "error", err)
			return fmt.Errorf("failed to decode item %d: %w", index, err)
		}

		if err := f(index, item); err != nil {
			return err
		}

		index++
	}

	return scanner.Err()
}

// Close implements Journal.
func (j *journalImpl[T]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
			return err
		}

		slog.Debug("closed journal", "path", j.path, "length", j.length)
		j.file = nil
	}

	return nil
}

var errStopRange = fmt.Errorf("stop range")

func countLines(path string) (uint64, error) {
	// #nosec G304 - path comes from tool configuration, not remote input
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal lines: %w", err)
	}

	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var count uint64

	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}

	return count, scanner.Err()
}
