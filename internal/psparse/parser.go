package psparse

import (
	"fmt"
	"strings"
)

// SyntaxError is a non-fatal parse diagnostic.
type SyntaxError struct {
	Line    int
	Message string
}

func (e SyntaxError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parameter is one declared parameter of a script or function.
type Parameter struct {
	Name    string
	Type    string
	Default string
}

// Function is a function declaration found in a script.
type Function struct {
	Name       string
	Parameters []Parameter
	// Advanced is true for functions carrying [CmdletBinding()] or
	// [Parameter()] attributes.
	Advanced bool
	Line     int
}

// Script is the parse result for one source file.
type Script struct {
	// ParamBlock holds the script's top-level param(...) parameters.
	ParamBlock []Parameter
	// Advanced is true when the script itself declares [CmdletBinding()].
	Advanced  bool
	Functions []Function
	Errors    []SyntaxError
}

// HasErrors reports whether any diagnostics were recorded.
func (s *Script) HasErrors() bool {
	return len(s.Errors) > 0
}

// Parse parses PowerShell source. It never fails: malformed input is
// recorded in Script.Errors and parsing continues past it.
func Parse(src string) *Script {
	lex := newLexer(src)
	p := &parser{tokens: lex.tokens()}
	script := p.parse()
	script.Errors = append(lex.errors, script.Errors...)

	return script
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]

	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

// funcFrame tracks an open function body so a nested param(...) block can
// be attributed to it.
type funcFrame struct {
	index int // index into script.Functions
	depth int // brace depth at which the body opened
}

func (p *parser) parse() *Script {
	script := &Script{}

	depth := 0
	sawStatement := false
	pendingCmdletBinding := false

	var frames []funcFrame

	for {
		tok := p.current()
		if tok.kind == tokEOF {
			break
		}

		switch {
		case tok.kind == tokIdent && strings.EqualFold(tok.text, "function"):
			p.next()
			p.parseFunction(script, &frames, depth, pendingCmdletBinding)

			pendingCmdletBinding = false
			sawStatement = true

		case tok.kind == tokIdent && strings.EqualFold(tok.text, "param"):
			p.next()

			params, advanced := p.parseParamList()

			switch {
			case len(frames) > 0:
				frame := frames[len(frames)-1]
				fn := &script.Functions[frame.index]
				fn.Parameters = append(fn.Parameters, params...)
				fn.Advanced = fn.Advanced || advanced || pendingCmdletBinding
			case !sawStatement || !hasParams(script):
				script.ParamBlock = append(script.ParamBlock, params...)
				script.Advanced = script.Advanced || advanced || pendingCmdletBinding
			}

			pendingCmdletBinding = false

		case tok.kind == tokLBracket:
			attr := p.parseBracketGroup()
			if strings.HasPrefix(strings.ToLower(attr), "cmdletbinding") {
				pendingCmdletBinding = true
			}

		case tok.kind == tokLBrace:
			p.next()

			depth++

		case tok.kind == tokRBrace:
			if depth == 0 {
				script.Errors = append(script.Errors, SyntaxError{
					Line:    tok.line,
					Message: "unexpected closing brace",
				})
				p.next()

				continue
			}

			p.next()

			depth--

			for len(frames) > 0 && depth < frames[len(frames)-1].depth {
				frames = frames[:len(frames)-1]
			}

		default:
			if tok.kind == tokIdent || tok.kind == tokVariable {
				sawStatement = true
			}

			p.next()
		}
	}

	if depth != 0 {
		script.Errors = append(script.Errors, SyntaxError{
			Line:    p.current().line,
			Message: "unbalanced braces at end of file",
		})
	}

	return script
}

func hasParams(s *Script) bool {
	return len(s.ParamBlock) > 0
}

func (p *parser) parseFunction(script *Script, frames *[]funcFrame, depth int, cmdletBinding bool) {
	name := p.current()
	if name.kind != tokIdent {
		script.Errors = append(script.Errors, SyntaxError{
			Line:    name.line,
			Message: "function keyword without a name",
		})

		return
	}

	p.next()

	fn := Function{Name: name.text, Line: name.line, Advanced: cmdletBinding}

	// Inline parameter list: function Foo($a, $b) { ... }
	if p.current().kind == tokLParen {
		p.next()

		params, advanced := p.parseParamEntries()
		fn.Parameters = params
		fn.Advanced = fn.Advanced || advanced
	}

	script.Functions = append(script.Functions, fn)

	// The body brace may be preceded by stray tokens in malformed
	// input; only a direct open brace starts a tracked body.
	if p.current().kind == tokLBrace {
		*frames = append(*frames, funcFrame{
			index: len(script.Functions) - 1,
			depth: depth + 1,
		})
	}
}

// parseParamList consumes "( ... )" after a param keyword.
func (p *parser) parseParamList() ([]Parameter, bool) {
	if p.current().kind != tokLParen {
		return nil, false
	}

	p.next()

	return p.parseParamEntries()
}

// parseParamEntries reads parameter entries up to the matching closing
// paren. Returns the parameters and whether binding attributes were seen.
func (p *parser) parseParamEntries() ([]Parameter, bool) {
	var (
		params   []Parameter
		advanced bool

		current   Parameter
		haveName  bool
		inDefault bool
		defParts  []string
	)

	flush := func() {
		if haveName {
			current.Default = strings.Join(defParts, " ")
			params = append(params, current)
		}

		current = Parameter{}
		haveName = false
		inDefault = false
		defParts = nil
	}

	parenDepth := 1

	for {
		tok := p.current()

		switch tok.kind {
		case tokEOF:
			flush()
			return params, advanced

		case tokLParen:
			parenDepth++

			if inDefault {
				defParts = append(defParts, tok.text)
			}

			p.next()

		case tokRParen:
			parenDepth--
			p.next()

			if parenDepth == 0 {
				flush()
				return params, advanced
			}

			if inDefault {
				defParts = append(defParts, tok.text)
			}

		case tokComma:
			p.next()

			if parenDepth == 1 {
				flush()
			} else if inDefault {
				defParts = append(defParts, tok.text)
			}

		case tokLBracket:
			group := p.parseBracketGroup()

			lower := strings.ToLower(group)

			switch {
			case strings.HasPrefix(lower, "parameter") || strings.HasPrefix(lower, "cmdletbinding"):
				advanced = true
			case strings.HasPrefix(lower, "validate") || strings.HasPrefix(lower, "alias"):
				// Validation attributes carry no type information.
			case !haveName && current.Type == "":
				current.Type = group
			default:
				if inDefault {
					defParts = append(defParts, "["+group+"]")
				}
			}

		case tokVariable:
			p.next()

			if !haveName {
				current.Name = tok.text
				haveName = true
			} else if inDefault {
				defParts = append(defParts, "$"+tok.text)
			}

		case tokEquals:
			p.next()

			if haveName {
				inDefault = true
			}

		default:
			p.next()

			if inDefault {
				if tok.kind == tokString {
					defParts = append(defParts, "'"+tok.text+"'")
				} else {
					defParts = append(defParts, tok.text)
				}
			}
		}
	}
}

// parseBracketGroup consumes "[ ... ]" and returns the raw content.
func (p *parser) parseBracketGroup() string {
	p.next() // [

	var parts []string

	depth := 1

	for {
		tok := p.current()

		switch tok.kind {
		case tokEOF:
			return strings.Join(parts, "")
		case tokLBracket:
			depth++

			parts = append(parts, "[")
			p.next()
		case tokRBracket:
			depth--
			p.next()

			if depth == 0 {
				return strings.Join(parts, "")
			}

			parts = append(parts, "]")
		case tokString:
			parts = append(parts, "'"+tok.text+"'")
			p.next()
		case tokVariable:
			parts = append(parts, "$"+tok.text)
			p.next()
		default:
			parts = append(parts, tok.text)
			p.next()
		}
	}
}
