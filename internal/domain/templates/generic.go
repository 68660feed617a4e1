package templates

import (
	m "labtest.dev/pkg/labtest/internal/model"
)

// featureProvider covers optional-feature scripts with an enable/skip
// pair.
type featureProvider struct{}

func (featureProvider) Category() m.Category {
	return m.CategoryFeature
}

func (featureProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	return []m.TestScenario{
		{
			Name:        "enables the feature when requested",
			Description: "turns the feature on when $Config." + flag + " is set",
			Config:      map[string]any{flag: true},
		},
		{
			Name:        "leaves the feature alone when disabled",
			Description: "makes no changes when $Config." + flag + " is off",
			Config:      map[string]any{flag: false},
		},
	}
}

// maintenanceProvider covers cleanup scripts with a single guarded run.
type maintenanceProvider struct{}

func (maintenanceProvider) Category() m.Category {
	return m.CategoryMaintenance
}

func (maintenanceProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	return []m.TestScenario{
		{
			Name:        "runs cleanup when enabled",
			Description: "performs maintenance without touching live services",
			Config:      map[string]any{flag: true},
		},
		{
			Name:        "does nothing when disabled",
			Description: "leaves the host untouched when $Config." + flag + " is off",
			Config:      map[string]any{flag: false},
		},
	}
}

// genericProvider is the fallback for Unknown scripts: a single smoke
// invocation.
type genericProvider struct{}

func (genericProvider) Category() m.Category {
	return m.CategoryUnknown
}

func (genericProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	return []m.TestScenario{
		{
			Name:        "runs without error",
			Description: "invokes the script with the shared lab config",
			Config:      map[string]any{flag: true},
		},
	}
}
