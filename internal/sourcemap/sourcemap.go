// Package sourcemap maps byte offsets in a sudoers source file to 1-based
// line/column positions, and provides the scanning cursor the lexer walks.
package sourcemap

import "strings"

// Position is a single point in a source file, 1-based (matching the
// conventional sudoers/cc error-message style: "file:line:col: message").
type Position struct {
	Line   int
	Column int
}

// SourceMap precomputes line boundaries for fast offset -> Position lookups.
type SourceMap struct {
	source      string
	lineOffsets []int // byte offset where each line starts
}

// New builds a SourceMap over source. Lines are split on \n; \r is left in
// place since sudoers files are treated as a flat byte stream.
func New(source string) *SourceMap {
	offsets := []int{0}
	for i, r := range source {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &SourceMap{source: source, lineOffsets: offsets}
}

// Position converts a 0-based byte offset into a 1-based line/column.
func (sm *SourceMap) Position(offset int) Position {
	// binary search for the last line start <= offset
	lo, hi := 0, len(sm.lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if sm.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo
	col := offset - sm.lineOffsets[line]
	return Position{Line: line + 1, Column: col + 1}
}

// Slice returns source[start:end]. Used by token scanners to materialize
// the text consumed between a saved start offset and the cursor's current
// position.
func (sm *SourceMap) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(sm.source) {
		end = len(sm.source)
	}
	if start > end {
		return ""
	}
	return sm.source[start:end]
}

// Line returns the text of the 1-based line, without its terminator.
func (sm *SourceMap) Line(n int) string {
	if n < 1 || n > len(sm.lineOffsets) {
		return ""
	}
	start := sm.lineOffsets[n-1]
	end := len(sm.source)
	if n < len(sm.lineOffsets) {
		end = sm.lineOffsets[n] - 1 // exclude the \n
	}
	if end < start {
		end = start
	}
	return strings.TrimSuffix(sm.source[start:end], "\r")
}

// Cursor is a forward-only scanning position over a SourceMap's source.
// The lexer and parsec combinators advance it; nothing ever rewinds it
// across a committed token, only within a single combinator attempt.
type Cursor struct {
	sm     *SourceMap
	offset int
}

// NewCursor returns a Cursor positioned at the start of sm's source.
func NewCursor(sm *SourceMap) *Cursor {
	return &Cursor{sm: sm}
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() int { return c.offset }

// Pos returns the current line/column.
func (c *Cursor) Pos() Position { return c.sm.Position(c.offset) }

// Mark returns a snapshot that Reset can return to. Used by combinators
// implementing a soft-reject (no input consumed) or a backtracking attempt.
func (c *Cursor) Mark() int { return c.offset }

// Reset rewinds the cursor to a previously captured Mark.
func (c *Cursor) Reset(mark int) { c.offset = mark }

// Eof reports whether the cursor has consumed the whole source.
func (c *Cursor) Eof() bool { return c.offset >= len(c.sm.source) }

// Peek returns the byte at the cursor without consuming it, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.Eof() {
		return 0
	}
	return c.sm.source[c.offset]
}

// PeekAt returns the byte n positions ahead of the cursor, or 0 past EOF.
func (c *Cursor) PeekAt(n int) byte {
	i := c.offset + n
	if i < 0 || i >= len(c.sm.source) {
		return 0
	}
	return c.sm.source[i]
}

// Advance consumes one byte and returns it, or 0 at EOF.
func (c *Cursor) Advance() byte {
	if c.Eof() {
		return 0
	}
	b := c.sm.source[c.offset]
	c.offset++
	return b
}

// Rest returns the unconsumed remainder of the source.
func (c *Cursor) Rest() string { return c.sm.source[c.offset:] }

// SourceMap returns the underlying SourceMap, for error reporting.
func (c *Cursor) SourceMap() *SourceMap { return c.sm }
