package domain

import (
	"sort"

	m "labtest.dev/pkg/labtest/internal/model"
)

// defaultMocks are the stand-ins applied before every generated test,
// keyed by platform. They cover the environment-touching operations a
// runner script may perform: package managers, service control, firewall
// rules, network requests and file mutation. Exactly these names (plus
// scenario overrides) are intercepted; anything else executes for real,
// which the framework accepts because it targets non-destructive
// validation.
var defaultMocks = map[m.Platform]map[string]m.MockBehavior{
	m.PlatformCrossPlatform: {
		"Invoke-WebRequest":  {Body: "return @{ StatusCode = 200 }"},
		"Invoke-RestMethod":  {Body: "return @{ status = 'ok' }"},
		"Start-BitsTransfer": {Body: "return $null"},
		"Set-Content":        {Body: "return $null"},
		"New-Item":           {Body: "return @{ FullName = $Path }"},
		"Copy-Item":          {Body: "return $null"},
		"Invoke-LabStep":     {Body: "& $Body"},
	},
	m.PlatformWindows: {
		"Start-Service":       {Body: "return $null"},
		"Stop-Service":        {Body: "return $null"},
		"Get-Service":         {Body: "return @{ Status = 'Running' }"},
		"New-NetFirewallRule": {Body: "return $null"},
		"Set-ItemProperty":    {Body: "return $null"},
		"Start-Process":       {Body: "return @{ ExitCode = 0 }"},
		"winget":              {Body: "return 'mocked winget'"},
		"choco":               {Body: "return 'mocked choco'"},
	},
	m.PlatformLinux: {
		"systemctl": {Body: "return 'mocked systemctl'"},
		"apt-get":   {Body: "return 'mocked apt-get'"},
		"dnf":       {Body: "return 'mocked dnf'"},
		"ufw":       {Body: "return 'mocked ufw'"},
	},
	m.PlatformMacOS: {
		"brew":      {Body: "return 'mocked brew'"},
		"launchctl": {Body: "return 'mocked launchctl'"},
	},
}

// MockSetBuilder composes the mock set for one scenario: platform
// defaults first, then scenario-specific overrides. The explicit builder
// replaces ad hoc map merging so override order is always defaults →
// scenario.
type MockSetBuilder struct {
	mocks map[string]m.MockBehavior
}

// NewMockSetBuilder starts an empty builder.
func NewMockSetBuilder() *MockSetBuilder {
	return &MockSetBuilder{mocks: make(map[string]m.MockBehavior)}
}

// WithPlatformDefaults adds the cross-platform defaults plus the defaults
// for the given platform.
func (b *MockSetBuilder) WithPlatformDefaults(platform m.Platform) *MockSetBuilder {
	for name, behavior := range defaultMocks[m.PlatformCrossPlatform] {
		b.mocks[name] = behavior
	}

	if platform != m.PlatformCrossPlatform {
		for name, behavior := range defaultMocks[platform] {
			b.mocks[name] = behavior
		}
	}

	return b
}

// WithOverrides applies scenario-specific mocks on top of the defaults.
func (b *MockSetBuilder) WithOverrides(overrides map[string]m.MockBehavior) *MockSetBuilder {
	for name, behavior := range overrides {
		b.mocks[name] = behavior
	}

	return b
}

// Build returns the composed mock set.
func (b *MockSetBuilder) Build() map[string]m.MockBehavior {
	out := make(map[string]m.MockBehavior, len(b.mocks))

	for name, behavior := range b.mocks {
		out[name] = behavior
	}

	return out
}

// MockNames returns the intercepted names in deterministic order, so
// generated files are stable across runs.
func MockNames(mocks map[string]m.MockBehavior) []string {
	names := make([]string, 0, len(mocks))

	for name := range mocks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
