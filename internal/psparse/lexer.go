// Package psparse provides a focused PowerShell parser: enough of the
// language to extract function declarations, param blocks and binding
// attributes from lab runner scripts. It is not a general interpreter;
// anything it does not recognize is skipped at the token level, and
// malformed input produces diagnostics instead of failures.
package psparse

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokVariable
	tokString
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokEquals
	tokOther
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	errors []SyntaxError
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1}
}

func (l *lexer) errorf(line int, msg string) {
	l.errors = append(l.errors, SyntaxError{Line: line, Message: msg})
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}

	return l.src[l.pos]
}

func (l *lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}

	return l.src[l.pos+offset]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++

	if r == '\n' {
		l.line++
	}

	return r
}

// tokens lexes the whole input. Lexing never fails; problems are
// collected as diagnostics on the lexer.
func (l *lexer) tokens() []token {
	var out []token

	for l.pos < len(l.src) {
		r := l.peek()

		switch {
		case r == '\n' || unicode.IsSpace(r):
			l.advance()
		case r == '<' && l.peekAt(1) == '#':
			l.skipBlockComment()
		case r == '#':
			l.skipLineComment()
		case r == '\'' || r == '"':
			out = append(out, l.scanString(r))
		case r == '@' && (l.peekAt(1) == '\'' || l.peekAt(1) == '"'):
			out = append(out, l.scanHereString())
		case r == '$':
			out = append(out, l.scanVariable())
		case r == '`':
			// Line continuation or escape outside a string; skip the
			// backtick and the escaped rune.
			l.advance()

			if l.pos < len(l.src) {
				l.advance()
			}
		case isIdentStart(r):
			out = append(out, l.scanIdent())
		default:
			out = append(out, l.scanPunct())
		}
	}

	return append(out, token{kind: tokEOF, line: l.line})
}

func (l *lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

func (l *lexer) skipBlockComment() {
	start := l.line
	l.advance() // <
	l.advance() // #

	for l.pos < len(l.src) {
		if l.peek() == '#' && l.peekAt(1) == '>' {
			l.advance()
			l.advance()

			return
		}

		l.advance()
	}

	l.errorf(start, "unterminated block comment")
}

func (l *lexer) scanString(quote rune) token {
	start := l.line
	l.advance()

	var b strings.Builder

	for l.pos < len(l.src) {
		r := l.peek()

		if r == '`' && quote == '"' {
			l.advance()

			if l.pos < len(l.src) {
				b.WriteRune(l.advance())
			}

			continue
		}

		if r == quote {
			l.advance()

			// Doubled quote is an escaped quote inside the string.
			if l.peek() == quote {
				b.WriteRune(l.advance())
				continue
			}

			return token{kind: tokString, text: b.String(), line: start}
		}

		b.WriteRune(l.advance())
	}

	l.errorf(start, "unterminated string literal")

	return token{kind: tokString, text: b.String(), line: start}
}

func (l *lexer) scanHereString() token {
	start := l.line
	l.advance() // @
	quote := l.advance()

	var b strings.Builder

	for l.pos < len(l.src) {
		if l.peek() == '\n' && l.peekAt(1) == quote && l.peekAt(2) == '@' {
			l.advance()
			l.advance()
			l.advance()

			return token{kind: tokString, text: b.String(), line: start}
		}

		b.WriteRune(l.advance())
	}

	l.errorf(start, "unterminated here-string")

	return token{kind: tokString, text: b.String(), line: start}
}

func (l *lexer) scanVariable() token {
	start := l.line
	l.advance() // $

	var b strings.Builder

	if l.peek() == '{' {
		l.advance()

		for l.pos < len(l.src) && l.peek() != '}' {
			b.WriteRune(l.advance())
		}

		if l.pos < len(l.src) {
			l.advance()
		} else {
			l.errorf(start, "unterminated braced variable")
		}

		return token{kind: tokVariable, text: b.String(), line: start}
	}

	for l.pos < len(l.src) && isVariableRune(l.peek()) {
		b.WriteRune(l.advance())
	}

	return token{kind: tokVariable, text: b.String(), line: start}
}

func (l *lexer) scanIdent() token {
	start := l.line

	var b strings.Builder

	for l.pos < len(l.src) && isIdentRune(l.peek()) {
		b.WriteRune(l.advance())
	}

	return token{kind: tokIdent, text: b.String(), line: start}
}

func (l *lexer) scanPunct() token {
	start := l.line
	r := l.advance()

	kind := tokOther

	switch r {
	case '{':
		kind = tokLBrace
	case '}':
		kind = tokRBrace
	case '(':
		kind = tokLParen
	case ')':
		kind = tokRParen
	case '[':
		kind = tokLBracket
	case ']':
		kind = tokRBracket
	case ',':
		kind = tokComma
	case '=':
		kind = tokEquals
	}

	return token{kind: kind, text: string(r), line: start}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == ':' || r == '.'
}

func isVariableRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':'
}
