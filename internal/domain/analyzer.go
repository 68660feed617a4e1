// Package domain implements script analysis, test generation and test
// scheduling for lab runner scripts.
package domain

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"labtest.dev/pkg/labtest/internal/adapter"
	m "labtest.dev/pkg/labtest/internal/model"
)

// Analyzer derives a ScriptAnalysis from one runner script. Analysis is
// computed on demand and never persisted.
type Analyzer interface {
	// Analyze reads and analyzes the script at path. The error is
	// non-nil only when the file cannot be read; parse problems degrade
	// the classification instead of failing.
	Analyze(path m.Path) (m.ScriptAnalysis, error)

	// AnalyzeSource analyzes already-loaded source text.
	AnalyzeSource(path m.Path, src string) m.ScriptAnalysis
}

type analyzer struct {
	fs adapter.ScriptFSAdapter
	ps adapter.PSFileAdapter
}

// NewAnalyzer constructs an Analyzer over the provided adapters.
func NewAnalyzer(fs adapter.ScriptFSAdapter, ps adapter.PSFileAdapter) Analyzer {
	return &analyzer{fs: fs, ps: ps}
}

func (a *analyzer) Analyze(path m.Path) (m.ScriptAnalysis, error) {
	src, err := a.fs.ReadFile(path)
	if err != nil {
		return m.ScriptAnalysis{}, fmt.Errorf("read script %s: %w", path, err)
	}

	return a.AnalyzeSource(path, string(src)), nil
}

func (a *analyzer) AnalyzeSource(path m.Path, src string) m.ScriptAnalysis {
	script := a.ps.Parse(src)

	analysis := m.ScriptAnalysis{
		Script:           path,
		Category:         classifyCategory(src),
		Platform:         classifyPlatform(src),
		RequiresAdmin:    detectAdminRequirement(src),
		Parameters:       a.ps.ScriptParameters(script),
		Functions:        a.ps.Functions(script),
		ExternalCommands: detectExternalCommands(src),
		EnabledProperty:  detectEnabledProperty(src),
		SyntaxErrors:     a.ps.Diagnostics(script),
	}

	if len(analysis.SyntaxErrors) > 0 {
		slog.Debug("script has parse diagnostics",
			"script", path, "count", len(analysis.SyntaxErrors))
	}

	return analysis
}

// categoryPatterns maps each category to the text patterns that vote for
// it. The category with the most votes wins; ties resolve in the order
// listed in categoryOrder, and zero votes means Unknown.
var categoryPatterns = map[m.Category][]*regexp.Regexp{
	m.CategoryInstaller: {
		regexp.MustCompile(`(?i)\bInstall-[A-Za-z]`),
		regexp.MustCompile(`(?i)\bDownload-[A-Za-z]`),
		regexp.MustCompile(`(?i)\bInvoke-WebRequest\b`),
		regexp.MustCompile(`(?i)\bStart-BitsTransfer\b`),
		regexp.MustCompile(`(?i)\b(winget|choco|apt-get|dnf|yum|brew)\s+install\b`),
		regexp.MustCompile(`(?i)\bmsiexec\b`),
	},
	m.CategoryService: {
		regexp.MustCompile(`(?i)\b(Start|Stop|Restart|Get)-Service\b`),
		regexp.MustCompile(`(?i)\bsystemctl\s+(start|stop|status|restart|enable)\b`),
		regexp.MustCompile(`(?i)\blaunchctl\s+(load|unload|start|stop)\b`),
		regexp.MustCompile(`(?i)\bNew-Service\b`),
	},
	m.CategoryFeature: {
		regexp.MustCompile(`(?i)\bEnable-WindowsOptionalFeature\b`),
		regexp.MustCompile(`(?i)\b(Add|Install)-WindowsFeature\b`),
		regexp.MustCompile(`(?i)\bEnable-Feature\b`),
	},
	m.CategoryConfiguration: {
		regexp.MustCompile(`(?i)\b(Set|New)-ItemProperty\b`),
		regexp.MustCompile(`(?i)\bHK(LM|CU):`),
		regexp.MustCompile(`(?i)\bnetsh\b`),
		regexp.MustCompile(`(?i)\bNew-NetFirewallRule\b`),
		regexp.MustCompile(`(?i)\bSet-TimeZone\b`),
		regexp.MustCompile(`(?i)\bSet-DnsClientServerAddress\b`),
	},
	m.CategoryMaintenance: {
		regexp.MustCompile(`(?i)\bRemove-Item\b.*-Recurse`),
		regexp.MustCompile(`(?i)\bClear-[A-Za-z]`),
		regexp.MustCompile(`(?i)\bOptimize-[A-Za-z]`),
		regexp.MustCompile(`(?i)\bcleanup\b`),
	},
}

// categoryOrder fixes tie-breaking between equally scored categories.
var categoryOrder = []m.Category{
	m.CategoryInstaller,
	m.CategoryService,
	m.CategoryFeature,
	m.CategoryConfiguration,
	m.CategoryMaintenance,
}

func classifyCategory(src string) m.Category {
	best := m.CategoryUnknown
	bestScore := 0

	for _, category := range categoryOrder {
		score := 0

		for _, pattern := range categoryPatterns[category] {
			if pattern.MatchString(src) {
				score++
			}
		}

		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	return best
}

var platformPatterns = map[m.Platform][]*regexp.Regexp{
	m.PlatformLinux: {
		regexp.MustCompile(`(?i)\b(apt-get|apt|dnf|yum|zypper)\b`),
		regexp.MustCompile(`(?i)\bsystemctl\b`),
		regexp.MustCompile(`/etc/[a-z]`),
		regexp.MustCompile(`(?i)\bchmod\b`),
	},
	m.PlatformMacOS: {
		regexp.MustCompile(`(?i)\bbrew\b`),
		regexp.MustCompile(`(?i)\blaunchctl\b`),
		regexp.MustCompile(`(?i)\bdefaults\s+write\b`),
	},
	m.PlatformWindows: {
		regexp.MustCompile(`(?i)\b(winget|choco)\b`),
		regexp.MustCompile(`(?i)\bHK(LM|CU):`),
		regexp.MustCompile(`(?i)\bnetsh\b`),
		regexp.MustCompile(`(?i)\bmsiexec\b`),
		regexp.MustCompile(`(?i)\b[A-Za-z]+-Windows[A-Za-z]+\b`),
		regexp.MustCompile(`[A-Za-z]:\\`),
	},
}

// classifyPlatform picks the platform whose patterns match exclusively.
// Matches for several platforms, or none at all, mean cross-platform.
func classifyPlatform(src string) m.Platform {
	var matched []m.Platform

	for _, platform := range []m.Platform{m.PlatformWindows, m.PlatformLinux, m.PlatformMacOS} {
		for _, pattern := range platformPatterns[platform] {
			if pattern.MatchString(src) {
				matched = append(matched, platform)
				break
			}
		}
	}

	if len(matched) == 1 {
		return matched[0]
	}

	return m.PlatformCrossPlatform
}

var adminPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)#Requires\s+-RunAsAdministrator`),
	regexp.MustCompile(`\bsudo\s`),
	regexp.MustCompile(`(?i)\bTest-IsAdministrator\b`),
	regexp.MustCompile(`(?i)WindowsPrincipal`),
}

func detectAdminRequirement(src string) bool {
	for _, pattern := range adminPatterns {
		if pattern.MatchString(src) {
			return true
		}
	}

	return false
}

// knownExternalCommands lists environment-touching tools worth surfacing
// as dependencies.
var knownExternalCommands = []string{
	"apt-get", "dnf", "yum", "zypper", "systemctl", "brew", "launchctl",
	"winget", "choco", "msiexec", "netsh", "curl", "wget", "git",
	"docker", "tofu", "terraform", "pwsh",
}

func detectExternalCommands(src string) []string {
	var found []string

	for _, cmd := range knownExternalCommands {
		pattern := regexp.MustCompile(`(?i)(^|[\s;(&])` + regexp.QuoteMeta(cmd) + `\b`)
		if pattern.MatchString(src) {
			found = append(found, cmd)
		}
	}

	return found
}

var (
	gatedConfigPattern = regexp.MustCompile(`(?i)if\s*\(\s*\$Config\.([A-Za-z_][A-Za-z0-9_]*)`)
	anyConfigPattern   = regexp.MustCompile(`\$Config\.([A-Za-z_][A-Za-z0-9_]*)`)
)

// detectEnabledProperty finds the config property gating the script.
// A property tested in an if condition wins over the first plain
// reference.
func detectEnabledProperty(src string) string {
	if match := gatedConfigPattern.FindStringSubmatch(src); match != nil {
		return match[1]
	}

	if match := anyConfigPattern.FindStringSubmatch(src); match != nil {
		name := match[1]
		if looksLikeFlag(name) {
			return name
		}
	}

	return ""
}

func looksLikeFlag(name string) bool {
	lower := strings.ToLower(name)

	for _, prefix := range []string{"install", "enable", "use", "configure", "set", "allow"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
