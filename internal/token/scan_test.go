package token

import (
	"testing"

	"github.com/wharflab/sudocore/internal/sourcemap"
)

func cursorOver(src string) *sourcemap.Cursor {
	return sourcemap.NewCursor(sourcemap.New(src))
}

func TestScanIdent(t *testing.T) {
	cases := []struct {
		src  string
		want string
		ok   bool
	}{
		{"alice rest", "alice", true},
		{"user_name-2,", "user_name-2", true},
		{"_hidden", "_hidden", true},
		{"9lives", "", false},
		{"%wheel", "", false},
	}
	for _, tt := range cases {
		got, ok := ScanIdent(cursorOver(tt.src))
		if got != tt.want || ok != tt.ok {
			t.Errorf("ScanIdent(%q) = (%q, %v), want (%q, %v)", tt.src, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScanUpperIdent(t *testing.T) {
	c := cursorOver("ADMINS_2 rest")
	got, ok := ScanUpperIdent(c)
	if !ok || got != "ADMINS_2" {
		t.Fatalf("ScanUpperIdent = (%q, %v)", got, ok)
	}
	if _, ok := ScanUpperIdent(cursorOver("admins")); ok {
		t.Fatalf("lower-case input must not scan as an upper identifier")
	}
}

func TestScanDecimal(t *testing.T) {
	c := cursorOver("1000 rest")
	n, ok := ScanDecimal(c)
	if !ok || n != 1000 {
		t.Fatalf("ScanDecimal = (%d, %v)", n, ok)
	}
	if _, ok := ScanDecimal(cursorOver("x")); ok {
		t.Fatalf("non-digit input must not scan as a decimal")
	}
}

func TestScanQuoted(t *testing.T) {
	text, quoted, terminated := ScanQuoted(cursorOver(`"a, b" rest`))
	if !quoted || !terminated || text != "a, b" {
		t.Fatalf("ScanQuoted = (%q, %v, %v)", text, quoted, terminated)
	}

	c := cursorOver("\"open\nnext")
	_, quoted, terminated = ScanQuoted(c)
	if !quoted || terminated {
		t.Fatalf("unterminated quote should report quoted && !terminated")
	}
	if c.Offset() != 0 {
		t.Fatalf("unterminated quote must not consume input, cursor at %d", c.Offset())
	}

	if _, quoted, _ := ScanQuoted(cursorOver("bare")); quoted {
		t.Fatalf("unquoted input must not scan as quoted")
	}
}

func TestScanPathStopsAtSeparators(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"/bin/ls rest", "/bin/ls"},
		{"/bin/ls,", "/bin/ls"},
		{"/sbin/ip:", "/sbin/ip"},
		{"/a/b=(c)", "/a/b"},
	}
	for _, tt := range cases {
		got, ok := ScanPath(cursorOver(tt.src))
		if !ok || got != tt.want {
			t.Errorf("ScanPath(%q) = (%q, %v), want %q", tt.src, got, ok, tt.want)
		}
	}
}

func TestSkipBlanksStopsAtNewline(t *testing.T) {
	c := cursorOver(" \t\nx")
	SkipBlanks(c)
	if c.Peek() != '\n' {
		t.Fatalf("SkipBlanks must not consume the newline, at %q", c.Peek())
	}
}
