package domain

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	m "labtest.dev/pkg/labtest/internal/model"
)

// BuildReport is the single terminal pass over collected results: bucket
// by category, compute totals and rates, sort deterministically. It
// maintains the invariants total = passed + failed (for executed files)
// and per-category sums equal to the overall totals.
func BuildReport(results []m.TestResult, elapsed time.Duration) m.TestReport {
	report := m.TestReport{
		GeneratedAt: time.Now().UTC(),
		Results:     append([]m.TestResult(nil), results...),
		Duration:    elapsed,
		DurationMS:  elapsed.Milliseconds(),
	}

	sort.Slice(report.Results, func(i, j int) bool {
		if report.Results[i].Category != report.Results[j].Category {
			return report.Results[i].Category < report.Results[j].Category
		}

		return report.Results[i].TestFile < report.Results[j].TestFile
	})

	buckets := map[m.Category]*m.CategoryStats{}

	for _, result := range report.Results {
		stats, ok := buckets[result.Category]
		if !ok {
			stats = &m.CategoryStats{Category: result.Category}
			buckets[result.Category] = stats
		}

		switch result.Status() {
		case m.StatusSkipped:
			stats.Skipped++
			report.Skipped++
		case m.StatusPassed:
			stats.Total++
			stats.Passed++
			report.Total++
			report.Passed++
		case m.StatusFailed:
			stats.Total++
			stats.Failed++
			report.Total++
			report.Failed++
		}
	}

	categories := make([]m.CategoryStats, 0, len(buckets))

	for _, stats := range buckets {
		if stats.Total > 0 {
			stats.PassRate = float64(stats.Passed) / float64(stats.Total)
		}

		categories = append(categories, *stats)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	report.Categories = categories

	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total)
	}

	return report
}

// reportPage is the static HTML report. One render, no incremental
// updates.
const reportPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>labtest report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
.passed { color: #2e7d32; }
.failed { color: #c62828; }
.skipped { color: #757575; }
.summary { margin: 1em 0; }
</style>
</head>
<body>
<h1>labtest report</h1>
<p class="summary">
Generated {{ .GeneratedAt.Format "2006-01-02 15:04:05 MST" }} —
{{ .Total }} executed, <span class="passed">{{ .Passed }} passed</span>,
<span class="failed">{{ .Failed }} failed</span>,
<span class="skipped">{{ .Skipped }} skipped</span>
({{ passRate .PassRate }} pass rate, {{ .DurationMS }} ms).
</p>

<h2>Categories</h2>
<table>
<tr><th>Category</th><th>Total</th><th>Passed</th><th>Failed</th><th>Skipped</th><th>Pass rate</th></tr>
{{- range .Categories }}
<tr>
<td>{{ .Category }}</td><td>{{ .Total }}</td>
<td class="passed">{{ .Passed }}</td><td class="failed">{{ .Failed }}</td>
<td class="skipped">{{ .Skipped }}</td><td>{{ passRate .PassRate }}</td>
</tr>
{{- end }}
</table>

<h2>Results</h2>
<table>
<tr><th>Test file</th><th>Category</th><th>Status</th><th>Passed</th><th>Failed</th><th>Duration (ms)</th><th>Detail</th></tr>
{{- range .Results }}
<tr>
<td>{{ .TestFile }}</td><td>{{ .Category }}</td>
<td class="{{ .Status.String }}">{{ .Status.String }}</td>
<td>{{ .Passed }}</td><td>{{ .Failed }}</td><td>{{ .DurationMS }}</td>
<td>{{ if .SkipReason }}{{ .SkipReason }}{{ else }}{{ .Error }}{{ end }}</td>
</tr>
{{- end }}
</table>
</body>
</html>
`

var reportTemplate = template.Must(
	template.New("report").
		Funcs(template.FuncMap{"passRate": formatPassRate}).
		Parse(reportPage))

// RenderHTML renders the static HTML report page.
func RenderHTML(report m.TestReport) ([]byte, error) {
	var b strings.Builder

	if err := reportTemplate.Execute(&b, report); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}

	return []byte(b.String()), nil
}

func formatPassRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
