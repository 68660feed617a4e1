package model

// MockBehavior is the stub body substituted for an intercepted command
// inside a generated test. The body is emitted verbatim as the Pester
// Mock script block.
type MockBehavior struct {
	Body string
	// ParameterFilter narrows the mock to matching invocations when set.
	ParameterFilter string
}

// TestScenario is a named test case bound to a config object, a set of
// mocks and expected invocation counts, and a platform applicability
// filter.
type TestScenario struct {
	Name        string
	Description string

	// Config holds property overrides applied to the shared lab config
	// for this scenario (e.g. InstallFoo: false).
	Config map[string]any

	// Mocks maps intercepted command names to stub behavior. These
	// override the platform defaults; exactly the listed names plus the
	// defaults are intercepted, anything else executes for real.
	Mocks map[string]MockBehavior

	// ExpectedInvocations maps mocked command names to the exact call
	// count asserted after the scenario body runs.
	ExpectedInvocations map[string]int

	RequiredPlatforms []Platform
	ExcludedPlatforms []Platform

	ShouldThrow   bool
	ErrorContains string

	// Validation is an optional extra assertion block appended verbatim
	// to the scenario body.
	Validation string
}

// ShouldRun resolves the platform filter to a single run/skip decision.
// An exclusion always wins over a requirement, so a platform listed in
// both skips. The returned reason is empty when the scenario runs.
func (s TestScenario) ShouldRun(current Platform) (bool, string) {
	for _, p := range s.ExcludedPlatforms {
		if p == current {
			return false, "platform " + string(current) + " is excluded"
		}
	}

	if len(s.RequiredPlatforms) == 0 {
		return true, ""
	}

	for _, p := range s.RequiredPlatforms {
		if p.Matches(current) {
			return true, ""
		}
	}

	return false, "requires platform " + joinPlatforms(s.RequiredPlatforms)
}

func joinPlatforms(platforms []Platform) string {
	out := ""

	for i, p := range platforms {
		if i > 0 {
			out += ", "
		}

		out += string(p)
	}

	return out
}
