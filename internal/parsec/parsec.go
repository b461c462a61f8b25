// Package parsec implements the three-outcome parser combinators spec.md
// §4.1 calls for: accept (consumed input, produced a value), soft-reject (no
// input consumed, caller may try an alternative), and hard-error (input
// consumed but malformed). Keeping these distinct is what lets the sudoers
// grammar stay LL(1) in practice while still reporting useful diagnostics
// once a line has been partially committed.
package parsec

import (
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/sourcemap"
)

// Status is the outcome tag of a combinator application.
type Status int

const (
	StatusAccept Status = iota
	StatusSoftReject
	StatusHardError
)

// Result carries a combinator's outcome. Value is meaningful only when
// Status is StatusAccept. Err is meaningful only when Status is
// StatusHardError.
type Result[T any] struct {
	Status Status
	Value  T
	Err    diagnostics.Diagnostic
}

func Accept[T any](v T) Result[T] { return Result[T]{Status: StatusAccept, Value: v} }

func SoftReject[T any]() Result[T] { return Result[T]{Status: StatusSoftReject} }

func HardError[T any](c *sourcemap.Cursor, kind diagnostics.Kind, msg string) Result[T] {
	return Result[T]{Status: StatusHardError, Err: diagnostics.Diagnostic{
		Kind: kind, Message: msg, Pos: c.Pos(),
	}}
}

// Parser is a sub-parser over a cursor producing a T.
type Parser[T any] func(c *sourcemap.Cursor) Result[T]

// AcceptIf consumes one byte if pred matches it; soft-rejects (consuming
// nothing) otherwise.
func AcceptIf(pred func(byte) bool) Parser[byte] {
	return func(c *sourcemap.Cursor) Result[byte] {
		b := c.Peek()
		if b == 0 || !pred(b) {
			return SoftReject[byte]()
		}
		c.Advance()
		return Accept(b)
	}
}

// IsSyntax consumes sym (and any trailing blanks) if present at the cursor.
// Never hard-errors: an absent optional separator is simply not there.
func IsSyntax(sym byte) Parser[bool] {
	return func(c *sourcemap.Cursor) Result[bool] {
		if c.Peek() != sym {
			return Accept(false)
		}
		c.Advance()
		skipBlanks(c)
		return Accept(true)
	}
}

// ExpectSyntax consumes sym (and trailing blanks), hard-erroring when it is
// missing.
func ExpectSyntax(sym byte) Parser[struct{}] {
	return func(c *sourcemap.Cursor) Result[struct{}] {
		if c.Peek() != sym {
			return HardError[struct{}](c, diagnostics.Parse, "expected '"+string(sym)+"'")
		}
		c.Advance()
		skipBlanks(c)
		return Accept(struct{}{})
	}
}

func skipBlanks(c *sourcemap.Cursor) {
	for c.Peek() == ' ' || c.Peek() == '\t' {
		c.Advance()
	}
}

// TryNonterminal attempts p at a restore point: on SoftReject the cursor is
// rewound so the caller may try an alternative production.
func TryNonterminal[T any](p Parser[T]) Parser[T] {
	return func(c *sourcemap.Cursor) Result[T] {
		mark := c.Mark()
		r := p(c)
		if r.Status == StatusSoftReject {
			c.Reset(mark)
		}
		return r
	}
}

// ExpectNonterminal runs p and converts a soft-reject into a hard error with
// msg, since at this point in the grammar something specific was required.
func ExpectNonterminal[T any](p Parser[T], msg string) Parser[T] {
	return func(c *sourcemap.Cursor) Result[T] {
		r := p(c)
		if r.Status == StatusSoftReject {
			return HardError[T](c, diagnostics.Parse, msg)
		}
		return r
	}
}

// Many parses one or more T separated by sep, requiring at least one
// successful T. Stops (without consuming the trailing separator) once sep
// matches but the next T soft-rejects... actually sep is only consumed when
// followed by a successful item; on failure the cursor rewinds to just
// after the last accepted item.
func Many[T any](item Parser[T], sep byte) Parser[[]T] {
	return func(c *sourcemap.Cursor) Result[[]T] {
		first := TryNonterminal(item)(c)
		switch first.Status {
		case StatusHardError:
			return Result[[]T]{Status: StatusHardError, Err: first.Err}
		case StatusSoftReject:
			return SoftReject[[]T]()
		}
		items := []T{first.Value}
		for {
			mark := c.Mark()
			if c.Peek() != sep {
				break
			}
			c.Advance()
			skipBlanks(c)
			next := TryNonterminal(item)(c)
			switch next.Status {
			case StatusAccept:
				items = append(items, next.Value)
			case StatusSoftReject:
				c.Reset(mark)
				return Accept(items)
			case StatusHardError:
				return Result[[]T]{Status: StatusHardError, Err: next.Err}
			}
		}
		return Accept(items)
	}
}

// Map transforms an Accept result's value; SoftReject/HardError pass through.
func Map[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return func(c *sourcemap.Cursor) Result[B] {
		r := p(c)
		switch r.Status {
		case StatusAccept:
			return Accept(f(r.Value))
		case StatusHardError:
			return Result[B]{Status: StatusHardError, Err: r.Err}
		default:
			return SoftReject[B]()
		}
	}
}

// Or tries p, falling back to alt on soft-reject. A hard error from p always
// propagates: by spec.md §4.1, once input has been committed the grammar no
// longer backtracks.
func Or[T any](p, alt Parser[T]) Parser[T] {
	return func(c *sourcemap.Cursor) Result[T] {
		r := TryNonterminal(p)(c)
		if r.Status == StatusSoftReject {
			return alt(c)
		}
		return r
	}
}
