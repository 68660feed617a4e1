package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labtest.dev/pkg/labtest/internal/adapter"
	"labtest.dev/pkg/labtest/internal/controller"
	m "labtest.dev/pkg/labtest/internal/model"
)

// fakeUI records every display call for assertions.
type fakeUI struct {
	records   []m.GenerationRecord
	analyses  []m.ScriptAnalysis
	summaries []m.TestReport
	reports   []m.TestReport
}

func (f *fakeUI) Start(context.Context, ...controller.StartOption) error { return nil }
func (f *fakeUI) Close(context.Context)                                  {}
func (f *fakeUI) Wait(context.Context)                                   {}

func (f *fakeUI) DisplayGeneration(_ context.Context, records []m.GenerationRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeUI) DisplayScriptList(_ context.Context, analyses []m.ScriptAnalysis) error {
	f.analyses = append(f.analyses, analyses...)
	return nil
}

func (f *fakeUI) DisplayRunSummary(_ context.Context, report m.TestReport) error {
	f.summaries = append(f.summaries, report)
	return nil
}

func (f *fakeUI) DisplayReport(_ context.Context, report m.TestReport) error {
	f.reports = append(f.reports, report)
	return nil
}

// watcherFunc adapts a closure to the ScriptWatcher interface.
type watcherFunc func(ctx context.Context) error

func (f watcherFunc) Run(ctx context.Context) error { return f(ctx) }

type workflowFixture struct {
	workflow Workflow
	ui       *fakeUI
	store    adapter.ReportStore
	runner   *fakeRunner
}

func newWorkflowFixture(factory WatcherFactory) *workflowFixture {
	fs := adapter.NewLocalScriptFSAdapter()
	store := adapter.NewLocalReportStore(fs)
	ui := &fakeUI{}
	runner := &fakeRunner{}
	analyzer := NewAnalyzer(fs, adapter.NewLocalPSFileAdapter())
	generator := NewGenerator(fs, analyzer)
	scheduler := NewScheduler(fs, runner, analyzer)

	if factory == nil {
		factory = DefaultWatcherFactory
	}

	return &workflowFixture{
		workflow: NewWorkflow(fs, store, ui, analyzer, generator, scheduler, factory),
		ui:       ui,
		store:    store,
		runner:   runner,
	}
}

func TestWorkflowGenerate_SingleFileUpdatesIndex(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "install-docker.ps1", installerScript)
	reports := m.Path(filepath.Join(dir, "reports"))

	fx := newWorkflowFixture(nil)

	err := fx.workflow.Generate(context.Background(), GenerateArgs{
		Source:  script,
		Reports: reports,
	})
	require.NoError(t, err)

	require.Len(t, fx.ui.records, 1)
	assert.Equal(t, "created", fx.ui.records[0].Outcome)

	entries, err := fx.store.LoadIndex(reports)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, script, entries[0].Script)
	assert.False(t, entries[0].Forced)
}

func TestWorkflowGenerate_MissingSourceFails(t *testing.T) {
	fx := newWorkflowFixture(nil)

	err := fx.workflow.Generate(context.Background(), GenerateArgs{
		Source: m.Path(filepath.Join(t.TempDir(), "absent.ps1")),
	})

	assert.Error(t, err)
}

func TestWorkflowGenerate_DirectoryProcessesAllScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "install-docker.ps1", installerScript)
	writeScript(t, dir, "enable-ssh.ps1", serviceScript)
	reports := m.Path(filepath.Join(dir, "reports"))

	fx := newWorkflowFixture(nil)

	err := fx.workflow.Generate(context.Background(), GenerateArgs{
		Source:  m.Path(dir),
		Reports: reports,
	})
	require.NoError(t, err)

	assert.Len(t, fx.ui.records, 2)

	entries, err := fx.store.LoadIndex(reports)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// Skipped-exists results stay out of the index; only written files are
// recorded.
func TestWorkflowGenerate_SkippedFilesAreNotIndexed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "install-docker.ps1", installerScript)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "install-docker.Tests.ps1"), []byte("# hand-edited\n"), 0o644))
	reports := m.Path(filepath.Join(dir, "reports"))

	fx := newWorkflowFixture(nil)

	err := fx.workflow.Generate(context.Background(), GenerateArgs{
		Source:  m.Path(dir),
		Reports: reports,
	})
	require.NoError(t, err)

	require.Len(t, fx.ui.records, 1)
	assert.Equal(t, "exists", fx.ui.records[0].Outcome)

	entries, err := fx.store.LoadIndex(reports)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// A watch event regenerates with force even though the initial pass left
// the existing file alone.
func TestWorkflowGenerate_WatchEventForcesRegeneration(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "install-docker.ps1", installerScript)
	testFile := filepath.Join(dir, "install-docker.Tests.ps1")
	require.NoError(t, os.WriteFile(testFile, []byte("# hand-edited\n"), 0o644))

	factory := func(_ string, handler func(string), _ time.Duration) adapter.ScriptWatcher {
		return watcherFunc(func(_ context.Context) error {
			handler(string(script))
			return nil
		})
	}

	fx := newWorkflowFixture(factory)

	err := fx.workflow.Generate(context.Background(), GenerateArgs{
		Source:  m.Path(dir),
		Reports: m.Path(filepath.Join(dir, "reports")),
		Watch:   true,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Describe 'install-docker.ps1'")

	// Initial pass skipped, watch pass overwrote.
	require.Len(t, fx.ui.records, 2)
	assert.Equal(t, "exists", fx.ui.records[0].Outcome)
	assert.Equal(t, "overwritten", fx.ui.records[1].Outcome)
}

func TestWorkflowRun_FailuresProduceErrorAndReport(t *testing.T) {
	dir := setUpTestTree(t)
	reports := m.Path(filepath.Join(dir, "reports"))

	fx := newWorkflowFixture(nil)
	fx.runner.runs = map[string]adapter.PesterRun{
		"install-docker.Tests.ps1": {Passed: 2, Failed: 1},
		"enable-ssh.Tests.ps1":     {Passed: 3},
	}

	err := fx.workflow.Run(context.Background(), RunArgs{
		Root:     m.Path(dir),
		Platform: m.PlatformCrossPlatform,
		Report:   true,
		Reports:  reports,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 test files failed")

	require.Len(t, fx.ui.summaries, 1)
	assert.Equal(t, 1, fx.ui.summaries[0].Failed)

	assert.FileExists(t, filepath.Join(string(reports), adapter.ReportJSONName))
	assert.FileExists(t, filepath.Join(string(reports), adapter.ReportHTMLName))
}

func TestWorkflowRun_AllPassing(t *testing.T) {
	dir := setUpTestTree(t)

	fx := newWorkflowFixture(nil)

	err := fx.workflow.Run(context.Background(), RunArgs{
		Root:     m.Path(dir),
		Platform: m.PlatformCrossPlatform,
	})

	require.NoError(t, err)
	require.Len(t, fx.ui.summaries, 1)
	assert.Equal(t, 2, fx.ui.summaries[0].Passed)
}

func TestWorkflowList_AnalyzesScripts(t *testing.T) {
	dir := setUpTestTree(t)

	fx := newWorkflowFixture(nil)

	err := fx.workflow.List(context.Background(), ListArgs{Root: m.Path(dir)})
	require.NoError(t, err)

	// Generated tests are excluded from the listing.
	require.Len(t, fx.ui.analyses, 2)
}

func TestWorkflowView_LoadsSavedReport(t *testing.T) {
	dir := t.TempDir()
	reports := m.Path(dir)

	fx := newWorkflowFixture(nil)

	saved := BuildReport([]m.TestResult{
		{TestFile: "a.Tests.ps1", Category: m.CategoryInstaller, Success: true, Passed: 1},
	}, time.Second)
	require.NoError(t, fx.store.SaveReport(reports, saved, []byte("<html></html>")))

	err := fx.workflow.View(context.Background(), ViewArgs{Reports: reports})
	require.NoError(t, err)

	require.Len(t, fx.ui.reports, 1)
	assert.Equal(t, 1, fx.ui.reports[0].Total)
}

func TestWorkflowView_MissingReportFails(t *testing.T) {
	fx := newWorkflowFixture(nil)

	err := fx.workflow.View(context.Background(), ViewArgs{Reports: m.Path(t.TempDir())})

	assert.Error(t, err)
}
