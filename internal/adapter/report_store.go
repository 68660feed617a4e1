package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	m "labtest.dev/pkg/labtest/internal/model"
	"labtest.dev/pkg/labtest/pkg"
)

// Artifact names written under the reports output directory.
const (
	ReportJSONName = "test-report.json"
	ReportHTMLName = "test-report.html"
	IndexName      = "test-index.json"
)

// ReportStore persists test reports and the append-only generated-test
// index.
type ReportStore interface {
	// SaveReport writes the JSON report and the rendered HTML page
	// atomically into dir.
	SaveReport(dir m.Path, report m.TestReport, html []byte) error

	// LoadReport reads a previously saved JSON report from dir.
	LoadReport(dir m.Path) (m.TestReport, error)

	// AppendIndex appends generation records to the test index in dir.
	AppendIndex(dir m.Path, entries []m.IndexEntry) error

	// LoadIndex reads all index records from dir. A missing index is an
	// empty result, not an error.
	LoadIndex(dir m.Path) ([]m.IndexEntry, error)
}

// LocalReportStore is the filesystem-backed ReportStore.
type LocalReportStore struct {
	fs ScriptFSAdapter
}

// NewLocalReportStore constructs a LocalReportStore over the given FS
// adapter.
func NewLocalReportStore(fs ScriptFSAdapter) *LocalReportStore {
	return &LocalReportStore{fs: fs}
}

// SaveReport writes test-report.json and test-report.html. Write failures
// surface directly; nothing is retried.
func (s *LocalReportStore) SaveReport(dir m.Path, report m.TestReport, html []byte) error {
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	jsonPath := s.fs.JoinPath(string(dir), ReportJSONName)
	if err := s.fs.WriteFileAtomic(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ReportJSONName, err)
	}

	htmlPath := s.fs.JoinPath(string(dir), ReportHTMLName)
	if err := s.fs.WriteFileAtomic(htmlPath, html, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ReportHTMLName, err)
	}

	return nil
}

// LoadReport reads test-report.json from dir.
func (s *LocalReportStore) LoadReport(dir m.Path) (m.TestReport, error) {
	data, err := s.fs.ReadFile(s.fs.JoinPath(string(dir), ReportJSONName))
	if err != nil {
		return m.TestReport{}, fmt.Errorf("read %s: %w", ReportJSONName, err)
	}

	var report m.TestReport
	if err := json.Unmarshal(data, &report); err != nil {
		return m.TestReport{}, fmt.Errorf("decode %s: %w", ReportJSONName, err)
	}

	return report, nil
}

// AppendIndex appends entries to the test index journal in dir.
func (s *LocalReportStore) AppendIndex(dir m.Path, entries []m.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	journal, err := pkg.OpenJournal[m.IndexEntry](filepath.Join(string(dir), IndexName))
	if err != nil {
		return err
	}

	defer func() { _ = journal.Close() }()

	return journal.AppendBatch(entries)
}

// LoadIndex reads all index records from dir.
func (s *LocalReportStore) LoadIndex(dir m.Path) ([]m.IndexEntry, error) {
	path := filepath.Join(string(dir), IndexName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	journal, err := pkg.OpenJournal[m.IndexEntry](path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = journal.Close() }()

	var entries []m.IndexEntry

	err = journal.Range(func(_ uint64, entry m.IndexEntry) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
