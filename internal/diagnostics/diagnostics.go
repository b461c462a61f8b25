// Package diagnostics defines the structured error types surfaced by the
// lexer, parser, and semantic analyzer. Formatting into human-readable
// messages is left to a collaborator (internal/reporter).
package diagnostics

import (
	"fmt"

	"github.com/wharflab/sudocore/internal/sourcemap"
)

// Kind classifies a Diagnostic per the taxonomy in spec.md §7.
type Kind string

const (
	Lex         Kind = "lex"
	Parse       Kind = "parse"
	Semantic    Kind = "semantic"
	Unsupported Kind = "unsupported"
)

// Diagnostic is a single structured error with its source location.
type Diagnostic struct {
	Kind    Kind
	Message string
	Pos     sourcemap.Position
	// Code is a short machine-readable tag, e.g. "include" or
	// "defaults-type-mismatch". Empty where none is assigned.
	Code string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Column, d.Kind, d.Message)
}

// ParseError aggregates every Diagnostic collected while parsing one file.
// Parse returns a non-nil *ParseError only when at least one Diagnostic was
// recorded; a successful parse returns (Sudoers, nil).
type ParseError struct {
	Diagnostics []Diagnostic
}

func (e *ParseError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return "no parse errors"
	}
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	return fmt.Sprintf("%d parse errors, first: %s", len(e.Diagnostics), e.Diagnostics[0].String())
}

// Append adds a diagnostic to err, allocating a new *ParseError if err is
// nil. Callers reassign: err = diagnostics.Append(err, d).
func Append(err *ParseError, d Diagnostic) *ParseError {
	if err == nil {
		err = &ParseError{}
	}
	err.Diagnostics = append(err.Diagnostics, d)
	return err
}
