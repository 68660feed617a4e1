package adapter

import (
	m "labtest.dev/pkg/labtest/internal/model"
	"labtest.dev/pkg/labtest/internal/psparse"
)

// PSFileAdapter encapsulates PowerShell-specific parsing so the domain
// layer can focus on classification rules while delegating language
// details to an infrastructure component.
type PSFileAdapter interface {
	// Parse builds a script AST from source text. Parsing never fails;
	// diagnostics are carried on the returned script.
	Parse(src string) *psparse.Script

	// Functions converts parsed declarations into the model shape.
	Functions(script *psparse.Script) []m.FunctionInfo

	// ScriptParameters converts the top-level param block into the model
	// shape.
	ScriptParameters(script *psparse.Script) []m.ParameterInfo

	// Diagnostics renders parse errors as plain strings for analysis
	// metadata.
	Diagnostics(script *psparse.Script) []string
}

// LocalPSFileAdapter provides a concrete PSFileAdapter backed by psparse.
type LocalPSFileAdapter struct{}

// NewLocalPSFileAdapter constructs a LocalPSFileAdapter.
func NewLocalPSFileAdapter() *LocalPSFileAdapter {
	return &LocalPSFileAdapter{}
}

// Parse builds the AST for the provided source.
func (a *LocalPSFileAdapter) Parse(src string) *psparse.Script {
	return psparse.Parse(src)
}

// Functions maps parsed function declarations to model records.
func (a *LocalPSFileAdapter) Functions(script *psparse.Script) []m.FunctionInfo {
	out := make([]m.FunctionInfo, 0, len(script.Functions))

	for _, fn := range script.Functions {
		out = append(out, m.FunctionInfo{
			Name:       fn.Name,
			Parameters: convertParameters(fn.Parameters),
			Advanced:   fn.Advanced,
			Line:       fn.Line,
		})
	}

	return out
}

// ScriptParameters maps the top-level param block to model records.
func (a *LocalPSFileAdapter) ScriptParameters(script *psparse.Script) []m.ParameterInfo {
	return convertParameters(script.ParamBlock)
}

// Diagnostics renders parse errors for analysis metadata.
func (a *LocalPSFileAdapter) Diagnostics(script *psparse.Script) []string {
	if len(script.Errors) == 0 {
		return nil
	}

	out := make([]string, 0, len(script.Errors))

	for _, e := range script.Errors {
		out = append(out, e.String())
	}

	return out
}

func convertParameters(params []psparse.Parameter) []m.ParameterInfo {
	if len(params) == 0 {
		return nil
	}

	out := make([]m.ParameterInfo, 0, len(params))

	for _, p := range params {
		out = append(out, m.ParameterInfo{
			Name:    p.Name,
			Type:    p.Type,
			Default: p.Default,
		})
	}

	return out
}
