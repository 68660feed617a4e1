// Package model defines the data structures for lab script analysis and testing.
package model

import "strings"

// Path represents a file system path.
type Path string

// Category is the heuristic classification of a runner script's purpose.
type Category string

const (
	// CategoryInstaller marks scripts that download and install software.
	CategoryInstaller Category = "installer"
	// CategoryFeature marks scripts that enable optional OS features.
	CategoryFeature Category = "feature"
	// CategoryService marks scripts that manage system services.
	CategoryService Category = "service"
	// CategoryConfiguration marks scripts that change system configuration.
	CategoryConfiguration Category = "configuration"
	// CategoryMaintenance marks cleanup and housekeeping scripts.
	CategoryMaintenance Category = "maintenance"
	// CategoryUnknown is the safe default when no heuristic matches.
	CategoryUnknown Category = "unknown"
)

// Platform identifies the operating system a script targets.
type Platform string

const (
	// PlatformWindows targets Windows hosts.
	PlatformWindows Platform = "windows"
	// PlatformLinux targets Linux hosts.
	PlatformLinux Platform = "linux"
	// PlatformMacOS targets macOS hosts.
	PlatformMacOS Platform = "macos"
	// PlatformCrossPlatform runs anywhere.
	PlatformCrossPlatform Platform = "cross-platform"
)

// ParseCategory maps a user-supplied string to a Category.
// Unrecognized values map to CategoryUnknown.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "installer":
		return CategoryInstaller
	case "feature":
		return CategoryFeature
	case "service":
		return CategoryService
	case "configuration", "config":
		return CategoryConfiguration
	case "maintenance":
		return CategoryMaintenance
	default:
		return CategoryUnknown
	}
}

// ParsePlatform maps a user-supplied string to a Platform.
// Unrecognized values map to PlatformCrossPlatform.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "macos", "darwin", "osx":
		return PlatformMacOS
	default:
		return PlatformCrossPlatform
	}
}

// Matches reports whether a script tagged with p can run on current.
// Cross-platform matches everything, in both directions.
func (p Platform) Matches(current Platform) bool {
	if p == PlatformCrossPlatform || current == PlatformCrossPlatform {
		return true
	}

	return p == current
}

// ParameterInfo describes one declared script or function parameter.
type ParameterInfo struct {
	Name    string
	Type    string
	Default string
}

// FunctionInfo describes a function declared in a runner script.
type FunctionInfo struct {
	Name       string
	Parameters []ParameterInfo
	// Advanced is true when the function uses [CmdletBinding()] or
	// [Parameter()] attributes (advanced binding).
	Advanced bool
	Line     int
}

// ScriptAnalysis holds the derived facts about one runner script.
// It is computed on demand and never persisted.
type ScriptAnalysis struct {
	Script        Path
	Category      Category
	Platform      Platform
	RequiresAdmin bool
	// Parameters is the script's top-level param block.
	Parameters []ParameterInfo
	Functions  []FunctionInfo
	// ExternalCommands lists external tools the script shells out to
	// (package managers, service control, network fetchers).
	ExternalCommands []string
	// EnabledProperty is the config property gating the script
	// (e.g. "InstallFoo" for a script guarded by $Config.InstallFoo).
	EnabledProperty string
	// SyntaxErrors holds parse diagnostics. A non-empty list degrades
	// classification but never aborts generation.
	SyntaxErrors []string
}

// HasFunction reports whether the analysis found a function with the given name.
func (a ScriptAnalysis) HasFunction(name string) bool {
	for _, fn := range a.Functions {
		if strings.EqualFold(fn.Name, name) {
			return true
		}
	}

	return false
}
