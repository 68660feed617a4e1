// Package templates provides the per-category Pester skeleton providers
// used by the test generator. Each provider contributes the scenarios for
// one script category; the shared rendering lives in render.go.
package templates

import (
	m "labtest.dev/pkg/labtest/internal/model"
)

// Provider supplies the category-specific scenarios for a generated test
// file.
type Provider interface {
	Category() m.Category
	// Scenarios returns the category context scenarios for the analyzed
	// script.
	Scenarios(analysis m.ScriptAnalysis) []m.TestScenario
}

var providers = map[m.Category]Provider{
	m.CategoryInstaller:     installerProvider{},
	m.CategoryService:       serviceProvider{},
	m.CategoryConfiguration: configurationProvider{},
	m.CategoryFeature:       featureProvider{},
	m.CategoryMaintenance:   maintenanceProvider{},
}

// ForCategory returns the provider for a category, falling back to the
// generic provider for Unknown (and anything unregistered).
func ForCategory(category m.Category) Provider {
	if p, ok := providers[category]; ok {
		return p
	}

	return genericProvider{}
}

// enabledProperty resolves the config flag a skeleton should reference,
// defaulting to "Enabled" when analysis found none.
func enabledProperty(analysis m.ScriptAnalysis) string {
	if analysis.EnabledProperty != "" {
		return analysis.EnabledProperty
	}

	return "Enabled"
}
