package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labtest.dev/pkg/labtest/internal/adapter"
	m "labtest.dev/pkg/labtest/internal/model"
)

func newTestAnalyzer() Analyzer {
	return NewAnalyzer(adapter.NewLocalScriptFSAdapter(), adapter.NewLocalPSFileAdapter())
}

const installerScript = `param([hashtable]$Config)

if ($Config.InstallDocker) {
    if (-not (Test-Path 'C:\Program Files\Docker')) {
        Invoke-WebRequest -Uri $url -OutFile $installer
        Start-Process msiexec -ArgumentList '/i', $installer -Wait
        winget install Docker.DockerDesktop
    }
}
`

const serviceScript = `param([hashtable]$Config)

if ($Config.EnableSsh) {
    systemctl enable sshd
    systemctl start sshd
    chmod 600 /etc/ssh/sshd_config
}
`

func TestAnalyzeSource_ClassifiesInstaller(t *testing.T) {
	analysis := newTestAnalyzer().AnalyzeSource("install-docker.ps1", installerScript)

	assert.Equal(t, m.CategoryInstaller, analysis.Category)
	assert.Equal(t, m.PlatformWindows, analysis.Platform)
	assert.Equal(t, "InstallDocker", analysis.EnabledProperty)
	assert.Contains(t, analysis.ExternalCommands, "winget")
	assert.Contains(t, analysis.ExternalCommands, "msiexec")
	assert.Empty(t, analysis.SyntaxErrors)
}

func TestAnalyzeSource_ClassifiesService(t *testing.T) {
	analysis := newTestAnalyzer().AnalyzeSource("enable-ssh.ps1", serviceScript)

	assert.Equal(t, m.CategoryService, analysis.Category)
	assert.Equal(t, m.PlatformLinux, analysis.Platform)
	assert.Equal(t, "EnableSsh", analysis.EnabledProperty)
}

func TestAnalyzeSource_ClassifiesConfiguration(t *testing.T) {
	src := `param([hashtable]$Config)
Set-ItemProperty -Path 'HKLM:\SOFTWARE\Lab' -Name 'Mode' -Value 'test'
New-NetFirewallRule -DisplayName 'lab' -Direction Inbound -Action Allow
`

	analysis := newTestAnalyzer().AnalyzeSource("configure-registry.ps1", src)

	assert.Equal(t, m.CategoryConfiguration, analysis.Category)
	assert.Equal(t, m.PlatformWindows, analysis.Platform)
}

func TestAnalyzeSource_ClassifiesMaintenance(t *testing.T) {
	src := `param([hashtable]$Config)
# cleanup of stale artifacts
Remove-Item $env:TEMP/lab-* -Recurse -Force
Clear-RecycleBin -Force
`

	analysis := newTestAnalyzer().AnalyzeSource("cleanup-temp.ps1", src)

	assert.Equal(t, m.CategoryMaintenance, analysis.Category)
}

func TestAnalyzeSource_NoMatchesIsUnknownAndCrossPlatform(t *testing.T) {
	analysis := newTestAnalyzer().AnalyzeSource("noop.ps1", `Write-Output 'hello'`)

	assert.Equal(t, m.CategoryUnknown, analysis.Category)
	assert.Equal(t, m.PlatformCrossPlatform, analysis.Platform)
	assert.Empty(t, analysis.EnabledProperty)
}

func TestAnalyzeSource_MixedPlatformSignalsAreCrossPlatform(t *testing.T) {
	src := `if ($IsWindows) { winget install jq } else { brew install jq }`

	analysis := newTestAnalyzer().AnalyzeSource("install-jq.ps1", src)

	assert.Equal(t, m.PlatformCrossPlatform, analysis.Platform)
}

func TestAnalyzeSource_DetectsAdminRequirement(t *testing.T) {
	src := `#Requires -RunAsAdministrator
param([hashtable]$Config)
Set-TimeZone -Id 'UTC'
`

	analysis := newTestAnalyzer().AnalyzeSource("set-timezone.ps1", src)

	assert.True(t, analysis.RequiresAdmin)
}

func TestAnalyzeSource_CollectsParametersAndFunctions(t *testing.T) {
	src := `param(
    [hashtable]$Config,
    [switch]$DryRun
)

function Install-LabTool {
    param([string]$Name)
    winget install $Name
}
`

	analysis := newTestAnalyzer().AnalyzeSource("install-tool.ps1", src)

	require.Len(t, analysis.Parameters, 2)
	assert.Equal(t, "Config", analysis.Parameters[0].Name)
	assert.Equal(t, "DryRun", analysis.Parameters[1].Name)
	assert.True(t, analysis.HasFunction("Install-LabTool"))
}

// A script with broken syntax still classifies; the diagnostics ride
// along instead of aborting analysis.
func TestAnalyzeSource_SyntaxErrorsDegradeGracefully(t *testing.T) {
	src := `param([hashtable]$Config)
if ($Config.InstallFoo) {
    Invoke-WebRequest -Uri $url
# missing closing brace
`

	analysis := newTestAnalyzer().AnalyzeSource("broken.ps1", src)

	assert.NotEmpty(t, analysis.SyntaxErrors)
	assert.Equal(t, m.CategoryInstaller, analysis.Category)
	assert.Equal(t, "InstallFoo", analysis.EnabledProperty)
}

func TestAnalyze_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "install-docker.ps1")
	require.NoError(t, os.WriteFile(path, []byte(installerScript), 0o644))

	analysis, err := newTestAnalyzer().Analyze(m.Path(path))
	require.NoError(t, err)

	assert.Equal(t, m.CategoryInstaller, analysis.Category)
}

func TestAnalyze_MissingFileFails(t *testing.T) {
	_, err := newTestAnalyzer().Analyze(m.Path(filepath.Join(t.TempDir(), "absent.ps1")))

	assert.Error(t, err)
}
