package domain

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"labtest.dev/pkg/labtest/internal/adapter"
	"labtest.dev/pkg/labtest/internal/domain/templates"
	m "labtest.dev/pkg/labtest/internal/model"
)

// DefaultLabConfigName is the shared config file generated tests load.
const DefaultLabConfigName = "lab-config.yaml"

// GenerateOutcome describes what the generator did for one script.
type GenerateOutcome int

const (
	// OutcomeCreated means a new test file was written.
	OutcomeCreated GenerateOutcome = iota
	// OutcomeUnchanged means the existing file already matches the
	// rendered skeleton; nothing was touched.
	OutcomeUnchanged
	// OutcomeSkippedExists means a file exists and force was not set.
	OutcomeSkippedExists
	// OutcomeOverwritten means force replaced an existing file.
	OutcomeOverwritten
)

// String returns the display label for the outcome.
func (o GenerateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkippedExists:
		return "exists"
	case OutcomeOverwritten:
		return "overwritten"
	default:
		return "unknown"
	}
}

// GenerateOptions controls one generation pass.
type GenerateOptions struct {
	// OutputDir receives the generated file; empty means next to the
	// script.
	OutputDir m.Path
	Force     bool
	// LabConfigName overrides the shared config file name referenced by
	// the skeleton.
	LabConfigName string
}

// GenerateResult reports one generated (or skipped) test.
type GenerateResult struct {
	Script   m.Path
	TestFile m.Path
	Analysis m.ScriptAnalysis
	Outcome  GenerateOutcome
	// Diff holds a unified diff of the replaced content when force
	// overwrote an existing file.
	Diff string
}

// Generator turns one analyzed script into a Pester test skeleton on
// disk. Pre-existing files are never overwritten unless forced.
type Generator interface {
	Generate(script m.Path, opts GenerateOptions) (GenerateResult, error)
}

type generator struct {
	fs       adapter.ScriptFSAdapter
	analyzer Analyzer
}

// NewGenerator constructs a Generator over the given adapters.
func NewGenerator(fs adapter.ScriptFSAdapter, analyzer Analyzer) Generator {
	return &generator{fs: fs, analyzer: analyzer}
}

func (g *generator) Generate(script m.Path, opts GenerateOptions) (GenerateResult, error) {
	analysis, err := g.analyzer.Analyze(script)
	if err != nil {
		return GenerateResult{Script: script}, err
	}

	testFile := g.testFilePath(script, opts.OutputDir)
	result := GenerateResult{Script: script, TestFile: testFile, Analysis: analysis}

	existing, exists, err := g.readExisting(testFile)
	if err != nil {
		return result, err
	}

	if exists && !opts.Force {
		slog.Debug("test file exists, skipping", "test", testFile)

		result.Outcome = OutcomeSkippedExists

		return result, nil
	}

	labConfigName := opts.LabConfigName
	if labConfigName == "" {
		labConfigName = DefaultLabConfigName
	}

	g.checkLabConfig(script, labConfigName, analysis)

	content, err := templates.Render(templates.Data{
		Analysis:      analysis,
		LabConfigName: labConfigName,
		MocksFor: func(scenario m.TestScenario) map[string]m.MockBehavior {
			return NewMockSetBuilder().
				WithPlatformDefaults(analysis.Platform).
				WithOverrides(scenario.Mocks).
				Build()
		},
	})
	if err != nil {
		return result, fmt.Errorf("render test for %s: %w", script, err)
	}

	if exists {
		if bytes.Equal(existing, []byte(content)) {
			result.Outcome = OutcomeUnchanged

			return result, nil
		}

		result.Diff = unifiedDiff(string(existing), content, string(testFile))
		result.Outcome = OutcomeOverwritten
	} else {
		result.Outcome = OutcomeCreated
	}

	if dir := filepath.Dir(string(testFile)); dir != "." {
		if err := g.fs.MkdirAll(m.Path(dir), 0o750); err != nil {
			return result, fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := g.fs.WriteFileAtomic(testFile, []byte(content), 0o644); err != nil {
		return result, fmt.Errorf("write test file %s: %w", testFile, err)
	}

	slog.Info("generated test",
		"script", script,
		"test", testFile,
		"category", analysis.Category,
		"platform", analysis.Platform,
		"outcome", result.Outcome.String())

	return result, nil
}

// checkLabConfig warns when the script gates on a flag the shared lab
// config next to it does not declare. The skeleton renders either way;
// generated tests inject their own config values.
func (g *generator) checkLabConfig(script m.Path, configName string, analysis m.ScriptAnalysis) {
	if analysis.EnabledProperty == "" {
		return
	}

	configPath := g.fs.JoinPath(filepath.Dir(string(script)), configName)

	config, err := LoadLabConfig(configPath)
	if err != nil {
		slog.Warn("lab config unreadable", "config", configPath, "error", err)
		return
	}

	if len(config) > 0 && !config.HasProperty(analysis.EnabledProperty) {
		slog.Warn("gating flag missing from lab config",
			"script", script, "flag", analysis.EnabledProperty, "config", configPath)
	}
}

func (g *generator) testFilePath(script m.Path, outputDir m.Path) m.Path {
	base := filepath.Base(string(script))
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".Tests.ps1"

	if outputDir != "" {
		return g.fs.JoinPath(string(outputDir), name)
	}

	return g.fs.JoinPath(filepath.Dir(string(script)), name)
}

func (g *generator) readExisting(testFile m.Path) ([]byte, bool, error) {
	info, err := g.fs.FileInfo(testFile)

	switch {
	case err == nil && info.IsDir():
		return nil, false, fmt.Errorf("test path %s is a directory", testFile)
	case err == nil:
		content, readErr := g.fs.ReadFile(testFile)
		if readErr != nil {
			return nil, true, fmt.Errorf("read existing test %s: %w", testFile, readErr)
		}

		return content, true, nil
	case os.IsNotExist(err):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("stat %s: %w", testFile, err)
	}
}

func unifiedDiff(before, after, path string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (regenerated)",
		Context:  2,
	})
	if err != nil {
		return ""
	}

	return diff
}
