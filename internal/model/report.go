package model

import "time"

// RunStatus represents the outcome of running one generated test file.
type RunStatus int

const (
	// StatusPassed indicates every assertion in the file passed.
	StatusPassed RunStatus = iota
	// StatusFailed indicates at least one failure or an execution error.
	StatusFailed
	// StatusSkipped indicates the file was not executed (platform filter).
	StatusSkipped
)

// String returns the report label for the status.
func (s RunStatus) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// TestResult is the outcome of running one generated test file.
type TestResult struct {
	TestFile Path          `json:"test_file"`
	Script   Path          `json:"script,omitempty"`
	Category Category      `json:"category"`
	Platform Platform      `json:"platform"`
	Success  bool          `json:"success"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"-"`
	// DurationMS mirrors Duration for the JSON report.
	DurationMS int64 `json:"duration_ms"`
	// Error holds the execution error message when the worker failed or
	// timed out. Test assertion failures land in Failed, not here.
	Error string `json:"error,omitempty"`
	// SkipReason is set when the file was skipped at dispatch time.
	SkipReason string `json:"skip_reason,omitempty"`
}

// Status derives the run status for report bucketing.
func (r TestResult) Status() RunStatus {
	if r.SkipReason != "" {
		return StatusSkipped
	}

	if r.Success {
		return StatusPassed
	}

	return StatusFailed
}

// CategoryStats aggregates results for one script category.
type CategoryStats struct {
	Category Category `json:"category"`
	Total    int      `json:"total"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	PassRate float64  `json:"pass_rate"`
}

// TestReport is the terminal aggregation over all collected results.
// Invariants: Total == Passed + Failed for executed files, and the
// per-category sums equal the overall totals.
type TestReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Results     []TestResult    `json:"results"`
	Categories  []CategoryStats `json:"categories"`
	Total       int             `json:"total"`
	Passed      int             `json:"passed"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	PassRate    float64         `json:"pass_rate"`
	Duration    time.Duration   `json:"-"`
	DurationMS  int64           `json:"duration_ms"`
}

// GenerationRecord is the displayable outcome of generating one test.
type GenerationRecord struct {
	Script   Path
	TestFile Path
	Category Category
	Platform Platform
	// Outcome is the generator's display label (created, unchanged,
	// exists, overwritten).
	Outcome string
	// Diff is the unified diff shown when force replaced a file.
	Diff string
}

// IndexEntry records one generated test in the append-only test index.
type IndexEntry struct {
	Script      Path      `json:"script"`
	TestFile    Path      `json:"test_file"`
	Category    Category  `json:"category"`
	Platform    Platform  `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`
	Forced      bool      `json:"forced,omitempty"`
}
