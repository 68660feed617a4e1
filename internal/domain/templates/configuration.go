package templates

import (
	m "labtest.dev/pkg/labtest/internal/model"
)

// configurationProvider generates backup/apply/rollback placeholders for
// configuration scripts.
type configurationProvider struct{}

func (configurationProvider) Category() m.Category {
	return m.CategoryConfiguration
}

func (configurationProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	return []m.TestScenario{
		{
			Name:        "backs up existing configuration",
			Description: "captures current settings before changing anything",
			Config:      map[string]any{flag: true},
			ExpectedInvocations: map[string]int{
				"Copy-Item": 1,
			},
		},
		{
			Name:        "applies the configuration",
			Description: "writes the requested settings when enabled",
			Config:      map[string]any{flag: true},
			ExpectedInvocations: map[string]int{
				"Set-ItemProperty": 1,
			},
			RequiredPlatforms: requiredFor(analysis),
		},
		{
			Name:        "rolls back on failure",
			Description: "restores the backup when applying throws",
			Config:      map[string]any{flag: true},
			Mocks: map[string]m.MockBehavior{
				"Set-ItemProperty": {Body: "throw 'apply failed'"},
			},
			ShouldThrow:   true,
			ErrorContains: "apply failed",
		},
	}
}

// requiredFor pins registry-touching scenarios to the analyzed platform.
func requiredFor(analysis m.ScriptAnalysis) []m.Platform {
	if analysis.Platform == m.PlatformCrossPlatform {
		return nil
	}

	return []m.Platform{analysis.Platform}
}
