// Package perrors collects positioned compile errors across the
// tokenizer, grammar parser and code generator phases.
package perrors

import (
	"fmt"
	"strings"
)

// Position is a location in a grammar source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// CompileError is a single diagnostic with a source position and the
// phase that raised it.
type CompileError struct {
	Pos     Position
	Message string
	Phase   string // "tokenizer", "grammar", "generator"
	Line    string // offending source line, for display
}

func (e *CompileError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("[%s] %s: %s\n  %s", e.Phase, e.Pos, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Pos, e.Message)
}

// ErrorList accumulates CompileErrors across a compilation.
type ErrorList struct {
	Errors []*CompileError
}

func NewErrorList() *ErrorList {
	return &ErrorList{}
}

func (el *ErrorList) Add(pos Position, phase, message, line string) {
	el.Errors = append(el.Errors, &CompileError{Pos: pos, Message: message, Phase: phase, Line: line})
}

func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

func (el *ErrorList) String() string {
	var b strings.Builder
	for _, e := range el.Errors {
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

// SyntaxError reports a grammar (or generated-parser input) syntax
// error at the furthest-consumed token, per spec §7.
type SyntaxError struct {
	Pos     Position
	Token   string
	Line    string
	Message string
}

func (e *SyntaxError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected token %q", e.Token)
	}
	return fmt.Sprintf("%s: %s\n  %s", e.Pos, msg, e.Line)
}
