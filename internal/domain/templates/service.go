package templates

import (
	m "labtest.dev/pkg/labtest/internal/model"
)

// serviceProvider generates status-check and start-stop placeholders for
// service-management scripts.
type serviceProvider struct{}

func (serviceProvider) Category() m.Category {
	return m.CategoryService
}

func (serviceProvider) Scenarios(analysis m.ScriptAnalysis) []m.TestScenario {
	flag := enabledProperty(analysis)

	scenarios := []m.TestScenario{
		{
			Name:        "reports service status",
			Description: "queries service state without mutating it",
			Config:      map[string]any{flag: true},
			ExpectedInvocations: map[string]int{
				"Start-Service": 0,
				"Stop-Service":  0,
			},
		},
		{
			Name:        "starts and stops the service",
			Description: "drives the service through a start/stop cycle",
			Config:      map[string]any{flag: true},
			Mocks: map[string]m.MockBehavior{
				"Get-Service": {Body: "return @{ Status = 'Stopped' }"},
			},
			ExpectedInvocations: map[string]int{
				"Start-Service": 1,
			},
		},
	}

	// systemctl-driven scripts only make sense on Linux hosts.
	if analysis.Platform == m.PlatformLinux {
		for i := range scenarios {
			scenarios[i].RequiredPlatforms = []m.Platform{m.PlatformLinux}
		}
	}

	return scenarios
}
