package templates

import (
	m "labtest.dev/pkg/labtest/internal/model"
)

// installerProvider generates the three installer scenarios: enabled,
// disabled and already-installed. Their mock expectations are disjoint so
// a script that short-circuits wrongly fails exactly one of them.
type installerProvider struct{}

func (installerProvider) Category() m.Category {
	return m.CategoryInstaller
}

func (installerProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	return []m.TestScenario{
		{
			Name:        "installs when enabled",
			Description: "downloads and runs the installer when $Config." + flag + " is set",
			Config:      map[string]any{flag: true},
			Mocks: map[string]m.MockBehavior{
				"Test-Path": {Body: "return $false"},
			},
			ExpectedInvocations: map[string]int{
				"Invoke-WebRequest": 1,
				"Start-Process":     1,
			},
		},
		{
			Name:        "skips when disabled",
			Description: "performs no download or install when $Config." + flag + " is off",
			Config:      map[string]any{flag: false},
			ExpectedInvocations: map[string]int{
				"Invoke-WebRequest": 0,
				"Start-Process":     0,
			},
		},
		{
			Name:        "skips when already installed",
			Description: "detects an existing install and does not download again",
			Config:      map[string]any{flag: true},
			Mocks: map[string]m.MockBehavior{
				"Test-Path":   {Body: "return $true"},
				"Get-Command": {Body: "return @{ Name = 'installed' }"},
			},
			ExpectedInvocations: map[string]int{
				"Invoke-WebRequest": 0,
			},
		},
	}
}
