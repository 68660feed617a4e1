package templates

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	m "labtest.dev/pkg/labtest/internal/model"
)

// Data carries everything the skeleton template needs for one script.
type Data struct {
	Analysis m.ScriptAnalysis
	// MocksFor composes the final mock set for one scenario (platform
	// defaults merged with scenario overrides). Injected by the
	// generator so the mock registry stays in one place.
	MocksFor func(scenario m.TestScenario) map[string]m.MockBehavior
	// LabConfigName is the shared config file the setup block loads.
	LabConfigName string
}

// skeleton is the fixed layout of every generated test file. Category
// contexts are pre-rendered scenario blocks.
const skeleton = `# Pester tests for {{ .ScriptFileName }}
# Generated by labtest (category: {{ .Category }}, platform: {{ .Platform }}).
# Regenerate with --force after changing the source script.

BeforeAll {
    $script:ScriptPath = Join-Path $PSScriptRoot '{{ .ScriptFileName }}'
    $script:LabConfigPath = Join-Path $PSScriptRoot '{{ .LabConfigName }}'

    $script:LabConfig = @{}
    if (Test-Path $script:LabConfigPath) {
        $script:LabConfig = ConvertFrom-Yaml (Get-Content -Raw $script:LabConfigPath)
    }
}

Describe '{{ .ScriptFileName }}' {
    Context 'Script validation' {
        It 'exists on disk' {
            Test-Path $script:ScriptPath | Should -BeTrue
        }

        It 'parses without syntax errors' {
            $parseErrors = $null
            [System.Management.Automation.Language.Parser]::ParseFile(
                $script:ScriptPath, [ref]$null, [ref]$parseErrors) | Out-Null
            $parseErrors.Count | Should -Be 0
        }

        It 'follows the naming convention' {
            Split-Path -Leaf $script:ScriptPath |
                Should -Match '^[A-Za-z0-9]+([-_.][A-Za-z0-9]+)*\.ps1$'
        }
{{- range .Functions }}

        It 'declares function {{ . }}' {
            Select-String -Path $script:ScriptPath -Pattern 'function\s+{{ . }}\b' -Quiet |
                Should -BeTrue
        }
{{- end }}
    }

    Context 'Parameter acceptance' {
{{- if .Parameters }}
{{- range .Parameters }}
        It 'accepts the {{ . }} parameter' {
            (Get-Command $script:ScriptPath).Parameters.Keys | Should -Contain '{{ . }}'
        }
{{- end }}
{{- else }}
        It 'accepts the Config parameter' {
            (Get-Command $script:ScriptPath).Parameters.Keys | Should -Contain 'Config'
        }
{{- end }}
    }

    Context '{{ .ContextTitle }}' {
{{- range .Scenarios }}
{{ . }}
{{- end }}
    }
}
`

var skeletonTemplate = template.Must(template.New("skeleton").Parse(skeleton))

type skeletonData struct {
	ScriptFileName string
	Category       m.Category
	Platform       m.Platform
	LabConfigName  string
	Functions      []string
	Parameters     []string
	ContextTitle   string
	Scenarios      []string
}

// Render assembles the full test-file skeleton for the analyzed script.
func Render(data Data) (string, error) {
	analysis := data.Analysis
	provider := ForCategory(analysis.Category)

	scenarios := provider.Scenarios(analysis)

	blocks := make([]string, 0, len(scenarios))
	for _, scenario := range scenarios {
		blocks = append(blocks, renderScenario(scenario, data))
	}

	functions := make([]string, 0, len(analysis.Functions))
	for _, fn := range analysis.Functions {
		functions = append(functions, fn.Name)
	}

	parameters := make([]string, 0, len(analysis.Parameters))
	for _, p := range analysis.Parameters {
		parameters = append(parameters, p.Name)
	}

	var b strings.Builder

	err := skeletonTemplate.Execute(&b, skeletonData{
		ScriptFileName: filepath.Base(string(analysis.Script)),
		Category:       analysis.Category,
		Platform:       analysis.Platform,
		LabConfigName:  data.LabConfigName,
		Functions:      functions,
		Parameters:     parameters,
		ContextTitle:   contextTitle(analysis.Category),
		Scenarios:      blocks,
	})
	if err != nil {
		return "", fmt.Errorf("render skeleton: %w", err)
	}

	return b.String(), nil
}

func contextTitle(category m.Category) string {
	switch category {
	case m.CategoryInstaller:
		return "Installer behavior"
	case m.CategoryService:
		return "Service behavior"
	case m.CategoryConfiguration:
		return "Configuration behavior"
	case m.CategoryFeature:
		return "Feature behavior"
	case m.CategoryMaintenance:
		return "Maintenance behavior"
	default:
		return "Execution"
	}
}

// renderScenario emits one nested Context block: mocks and config in
// BeforeEach, the invocation plus invocation-count assertions in the It.
func renderScenario(scenario m.TestScenario, data Data) string {
	var b strings.Builder

	indent := "        "

	fmt.Fprintf(&b, "%sContext '%s' {\n", indent, escapePS(scenario.Name))
	fmt.Fprintf(&b, "%s    BeforeEach {\n", indent)

	mocks := scenario.Mocks
	if data.MocksFor != nil {
		mocks = data.MocksFor(scenario)
	}

	for _, name := range sortedMockNames(mocks) {
		behavior := mocks[name]

		if behavior.ParameterFilter != "" {
			fmt.Fprintf(&b, "%s        Mock %s { %s } -ParameterFilter { %s }\n",
				indent, name, behavior.Body, behavior.ParameterFilter)
		} else {
			fmt.Fprintf(&b, "%s        Mock %s { %s }\n", indent, name, behavior.Body)
		}
	}

	fmt.Fprintf(&b, "%s        $Config = @{} + $script:LabConfig\n", indent)

	for _, key := range sortedConfigKeys(scenario.Config) {
		fmt.Fprintf(&b, "%s        $Config.%s = %s\n", indent, key, psLiteral(scenario.Config[key]))
	}

	fmt.Fprintf(&b, "%s    }\n\n", indent)

	skip := skipExpression(scenario)
	if skip != "" {
		fmt.Fprintf(&b, "%s    It '%s' -Skip:(%s) {\n", indent, escapePS(scenario.Description), skip)
	} else {
		fmt.Fprintf(&b, "%s    It '%s' {\n", indent, escapePS(scenario.Description))
	}

	if scenario.ShouldThrow {
		fmt.Fprintf(&b, "%s        { & $script:ScriptPath -Config $Config } | Should -Throw '*%s*'\n",
			indent, escapePS(scenario.ErrorContains))
	} else {
		fmt.Fprintf(&b, "%s        { & $script:ScriptPath -Config $Config } | Should -Not -Throw\n", indent)
	}

	for _, name := range sortedExpectationNames(scenario.ExpectedInvocations) {
		fmt.Fprintf(&b, "%s        Should -Invoke %s -Times %d -Exactly\n",
			indent, name, scenario.ExpectedInvocations[name])
	}

	if scenario.Validation != "" {
		fmt.Fprintf(&b, "%s        %s\n", indent, scenario.Validation)
	}

	fmt.Fprintf(&b, "%s    }\n", indent)
	fmt.Fprintf(&b, "%s}\n", indent)

	return b.String()
}

// skipExpression renders the platform filter as a Pester -Skip condition
// evaluated on the host that runs the test.
func skipExpression(scenario m.TestScenario) string {
	var terms []string

	for _, p := range scenario.ExcludedPlatforms {
		if v := platformVariable(p); v != "" {
			terms = append(terms, v)
		}
	}

	if len(scenario.RequiredPlatforms) > 0 {
		var required []string

		for _, p := range scenario.RequiredPlatforms {
			if v := platformVariable(p); v != "" {
				required = append(required, v)
			}
		}

		if len(required) > 0 {
			terms = append(terms, "-not ("+strings.Join(required, " -or ")+")")
		}
	}

	return strings.Join(terms, " -or ")
}

func platformVariable(p m.Platform) string {
	switch p {
	case m.PlatformWindows:
		return "$IsWindows"
	case m.PlatformLinux:
		return "$IsLinux"
	case m.PlatformMacOS:
		return "$IsMacOS"
	default:
		return ""
	}
}

func psLiteral(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "$true"
		}

		return "$false"
	case string:
		return "'" + escapePS(v) + "'"
	case nil:
		return "$null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func escapePS(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func sortedMockNames(mocks map[string]m.MockBehavior) []string {
	names := make([]string, 0, len(mocks))

	for name := range mocks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func sortedConfigKeys(config map[string]any) []string {
	keys := make([]string, 0, len(config))

	for key := range config {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func sortedExpectationNames(expectations map[string]int) []string {
	names := make([]string, 0, len(expectations))

	for name := range expectations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
