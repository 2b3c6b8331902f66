// Package jshint is a JavaScript validator that enforces a subset of the
// jshint rule set. Syntax checking is delegated to the tdewolff JavaScript
// parser; the remaining rules run over the token stream and the raw lines.
package jshint

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/colonyops/crucibot/internal/lint"
)

// Name is the validator name used in configuration and reports.
const Name = "jshint"

// Finding codes, matching the jshint message catalogue.
const (
	CodeSyntax        = "E000"
	CodeTooManyErrors = "E043"
	CodeEqEqEq        = "W116"
	CodeEval          = "W061"
	CodeDebugger      = "W087"
	CodeWith          = "W085"
	CodeLineTooLong   = "W101"
	CodeTrailing      = "W102"
)

// Validator checks JavaScript sources.
type Validator struct {
	opts Options
}

var _ lint.Validator = (*Validator)(nil)

// New creates a validator with the given options.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

func (v *Validator) Name() string { return Name }

func (v *Validator) SupportedExtensions() []string { return []string{".js"} }

// Options returns the options the validator was created with.
func (v *Validator) Options() Options { return v.opts }

// Validate returns the findings for content ordered by position, capped at
// the configured maxerr.
func (v *Validator) Validate(content string) []lint.Finding {
	var findings []lint.Finding

	if f, ok := syntaxFinding(content); ok {
		findings = append(findings, f)
	}
	findings = append(findings, v.tokenFindings(content)...)
	findings = append(findings, v.lineFindings(content)...)

	lint.SortFindings(findings)

	if limit := v.opts.maxErr(); len(findings) > limit {
		last := findings[limit-1]
		findings = append(findings[:limit:limit], lint.Finding{
			Line:    last.Line,
			Message: "Too many errors.",
			Code:    CodeTooManyErrors,
		})
	}
	return findings
}

func syntaxFinding(content string) (lint.Finding, bool) {
	_, err := js.Parse(parse.NewInputString(content), js.Options{})
	if err == nil {
		return lint.Finding{}, false
	}

	f := lint.Finding{Line: 1, Message: err.Error(), Code: CodeSyntax}
	var perr *parse.Error
	if errors.As(err, &perr) {
		f.Line = max(perr.Line, 1)
		f.Column = perr.Column
		f.Message = perr.Message
	}
	return f, true
}

func (v *Validator) tokenFindings(content string) []lint.Finding {
	var (
		findings []lint.Finding
		l        = js.NewLexer(parse.NewInputString(content))
		pos      = position{line: 1, col: 1}
		prev     = js.ErrorToken
		evalAt   *position
	)

	for {
		tt, text := l.Next()
		if tt == js.DivToken || tt == js.DivEqToken {
			if !endsExpression(prev) {
				tt, text = l.RegExp()
			}
		}
		if tt == js.ErrorToken {
			break
		}

		at := pos
		pos.advance(text)

		if tt == js.WhitespaceToken || tt == js.LineTerminatorToken ||
			tt == js.CommentToken || tt == js.CommentLineTerminatorToken {
			continue
		}

		if evalAt != nil {
			if tt == js.OpenParenToken {
				findings = append(findings, lint.Finding{
					Line: evalAt.line, Column: evalAt.col,
					Message: "eval can be harmful.", Code: CodeEval,
				})
			}
			evalAt = nil
		}

		switch {
		case tt == js.EqEqToken && v.opts.EqEqEq:
			findings = append(findings, at.finding("Expected '===' and instead saw '=='.", CodeEqEqEq))
		case tt == js.NotEqToken && v.opts.EqEqEq:
			findings = append(findings, at.finding("Expected '!==' and instead saw '!='.", CodeEqEqEq))
		case tt == js.DebuggerToken && !v.opts.Debug:
			findings = append(findings, at.finding("Forgotten 'debugger' statement?", CodeDebugger))
		case tt == js.WithToken && !v.opts.WithStmt:
			findings = append(findings, at.finding("Don't use 'with'.", CodeWith))
		case tt == js.IdentifierToken && !v.opts.Evil && bytes.Equal(text, []byte("eval")):
			evalAt = &at
		}

		prev = tt
	}

	return findings
}

func (v *Validator) lineFindings(content string) []lint.Finding {
	if v.opts.MaxLen <= 0 && !v.opts.Trailing {
		return nil
	}

	var findings []lint.Finding
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lineNo := i + 1

		if v.opts.MaxLen > 0 && utf8.RuneCountInString(line) > v.opts.MaxLen {
			findings = append(findings, lint.Finding{
				Line: lineNo, Column: v.opts.MaxLen + 1,
				Message: "Line is too long.", Code: CodeLineTooLong,
			})
		}

		if v.opts.Trailing {
			trimmed := strings.TrimRight(line, " \t")
			if len(trimmed) != len(line) {
				findings = append(findings, lint.Finding{
					Line: lineNo, Column: utf8.RuneCountInString(trimmed) + 1,
					Message: "Trailing whitespace.", Code: CodeTrailing,
				})
			}
		}
	}
	return findings
}

// endsExpression reports whether a '/' following tt is a division operator
// rather than the start of a regular expression literal.
func endsExpression(tt js.TokenType) bool {
	switch tt {
	case js.IdentifierToken, js.StringToken, js.RegExpToken, js.TemplateToken, js.TemplateEndToken,
		js.CloseParenToken, js.CloseBracketToken, js.IncrToken, js.DecrToken,
		js.ThisToken, js.TrueToken, js.FalseToken, js.NullToken:
		return true
	}
	return js.IsNumeric(tt)
}

type position struct {
	line int
	col  int
}

func (p *position) advance(text []byte) {
	for _, b := range text {
		if b == '\n' {
			p.line++
			p.col = 1
			continue
		}
		// count runes, not continuation bytes
		if b&0xC0 != 0x80 {
			p.col++
		}
	}
}

func (p position) finding(msg, code string) lint.Finding {
	return lint.Finding{Line: p.line, Column: p.col, Message: msg, Code: code}
}
