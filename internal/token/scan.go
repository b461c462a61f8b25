package token

import (
	"strconv"

	"github.com/wharflab/sudocore/internal/sourcemap"
)

// SkipBlanks consumes spaces and tabs (but not newlines) at the cursor.
func SkipBlanks(c *sourcemap.Cursor) {
	for IsBlank(c.Peek()) {
		c.Advance()
	}
}

// ScanIdent consumes [A-Za-z_][A-Za-z0-9_-]* at the cursor. Returns the
// scanned text and true, or "" and false without consuming anything if the
// cursor does not start an identifier.
func ScanIdent(c *sourcemap.Cursor) (string, bool) {
	if !IsIdentStart(c.Peek()) {
		return "", false
	}
	start := c.Offset()
	c.Advance()
	for IsIdentCont(c.Peek()) {
		c.Advance()
	}
	return sliceFrom(c, start), true
}

// sliceFrom returns the bytes consumed between start and the cursor's
// current offset.
func sliceFrom(c *sourcemap.Cursor, start int) string {
	return c.SourceMap().Slice(start, c.Offset())
}

// ScanUpperIdent consumes [A-Z][A-Z0-9_]* at the cursor: the syntax for
// alias names and tag keywords (spec.md §6).
func ScanUpperIdent(c *sourcemap.Cursor) (string, bool) {
	if !IsUpperIdentStart(c.Peek()) {
		return "", false
	}
	start := c.Offset()
	c.Advance()
	for IsUpperIdentCont(c.Peek()) {
		c.Advance()
	}
	return sliceFrom(c, start), true
}

// ScanDecimal consumes one or more decimal digits. Returns the parsed value
// and true, or 0 and false without consuming anything if the cursor does
// not start a digit.
func ScanDecimal(c *sourcemap.Cursor) (int, bool) {
	if !IsDigit(c.Peek()) {
		return 0, false
	}
	start := c.Offset()
	for IsDigit(c.Peek()) {
		c.Advance()
	}
	n, err := strconv.Atoi(sliceFrom(c, start))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ScanQuoted consumes a double-quoted string with no escape processing
// (spec.md §6: "no escape processing in this core"). Returns the text
// between the quotes (not including them) and true, or "" and false if the
// cursor is not at a `"`. If the opening quote is present but the closing
// quote is missing before end-of-line or end-of-file, ok is true, terminated
// is false, and nothing is consumed (a Lex error for the caller to report).
func ScanQuoted(c *sourcemap.Cursor) (text string, ok bool, terminated bool) {
	if c.Peek() != '"' {
		return "", false, false
	}
	mark := c.Mark()
	c.Advance() // opening quote
	start := c.Offset()
	for {
		b := c.Peek()
		if b == '"' {
			text = sliceFrom(c, start)
			c.Advance() // closing quote
			return text, true, true
		}
		if b == 0 || b == '\n' {
			c.Reset(mark)
			return "", true, false
		}
		c.Advance()
	}
}

// ScanPath consumes an unquoted path-like token (IsPathChar run). Returns
// the text and true, or "" and false if nothing matched.
func ScanPath(c *sourcemap.Cursor) (string, bool) {
	if !IsPathChar(c.Peek()) {
		return "", false
	}
	start := c.Offset()
	for IsPathChar(c.Peek()) {
		c.Advance()
	}
	return sliceFrom(c, start), true
}
