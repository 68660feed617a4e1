package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "labtest.dev/pkg/labtest/internal/model"
)

func TestMockSetBuilder_PlatformDefaultsLayering(t *testing.T) {
	mocks := NewMockSetBuilder().
		WithPlatformDefaults(m.PlatformWindows).
		Build()

	// Cross-platform defaults are always present.
	assert.Contains(t, mocks, "Invoke-WebRequest")
	assert.Contains(t, mocks, "Copy-Item")

	// Windows-specific defaults layer on top.
	assert.Contains(t, mocks, "Start-Service")
	assert.Contains(t, mocks, "winget")

	// Other platforms' defaults stay out.
	assert.NotContains(t, mocks, "systemctl")
	assert.NotContains(t, mocks, "brew")
}

func TestMockSetBuilder_CrossPlatformOnly(t *testing.T) {
	mocks := NewMockSetBuilder().
		WithPlatformDefaults(m.PlatformCrossPlatform).
		Build()

	assert.Contains(t, mocks, "Invoke-WebRequest")
	assert.NotContains(t, mocks, "winget")
	assert.NotContains(t, mocks, "systemctl")
}

func TestMockSetBuilder_OverridesWinOverDefaults(t *testing.T) {
	override := m.MockBehavior{Body: "return $true", ParameterFilter: "$Path -eq 'C:\\x'"}

	mocks := NewMockSetBuilder().
		WithPlatformDefaults(m.PlatformWindows).
		WithOverrides(map[string]m.MockBehavior{
			"Invoke-WebRequest": override,
			"Test-Path":         {Body: "return $false"},
		}).
		Build()

	assert.Equal(t, override, mocks["Invoke-WebRequest"])
	assert.Equal(t, "return $false", mocks["Test-Path"].Body)
}

func TestMockSetBuilder_BuildReturnsACopy(t *testing.T) {
	builder := NewMockSetBuilder().WithPlatformDefaults(m.PlatformLinux)

	first := builder.Build()
	first["systemctl"] = m.MockBehavior{Body: "mutated"}

	second := builder.Build()
	require.NotEqual(t, "mutated", second["systemctl"].Body)
}

func TestMockNames_Sorted(t *testing.T) {
	mocks := NewMockSetBuilder().WithPlatformDefaults(m.PlatformMacOS).Build()

	names := MockNames(mocks)

	assert.Len(t, names, len(mocks))
	assert.True(t, sort.StringsAreSorted(names))
}
