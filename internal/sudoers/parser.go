// Package sudoers implements the lexer and grammar for the sudoers policy
// language (spec.md §4.2, §6): it turns source text into a sequence of
// ast.Sudo items plus any lex/parse diagnostics. It does not resolve
// aliases or build the authorization-ready policy — that is
// internal/semantic and internal/policy's job.
package sudoers

import (
	"strings"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/parsec"
	"github.com/wharflab/sudocore/internal/sourcemap"
	"github.com/wharflab/sudocore/internal/token"
)

// directiveKeywords maps the bare-word spelling of a directive to its kind
// (spec.md §4.2: "switch to directive parsing" when the first element of a
// parsed userlist matches one of these).
var directiveKeywords = map[string]ast.DirectiveKind{
	"User_Alias":  ast.UserAlias,
	"Host_Alias":  ast.HostAlias,
	"Cmnd_Alias":  ast.CmndAlias,
	"Cmd_Alias":   ast.CmndAlias,
	"Runas_Alias": ast.RunasAlias,
	"Defaults":    ast.DefaultsDirective,
}

// parser holds the mutable state of one parse pass over a single file's
// text: the cursor and the accumulated diagnostics.
type parser struct {
	c     *sourcemap.Cursor
	diags *diagnostics.ParseError
}

func (p *parser) errorf(kind diagnostics.Kind, pos sourcemap.Position, msg string) {
	p.diags = diagnostics.Append(p.diags, diagnostics.Diagnostic{Kind: kind, Message: msg, Pos: pos})
}

// Parse lexes and parses sudoers source text into a flat sequence of
// top-level items. @include/@includedir items are returned as SudoInclude/
// SudoIncludeDir nodes without being followed — resolving them is the
// caller's job (spec.md §6: "includes are resolved by a caller-supplied
// file reader").
//
// Lex and parse errors on one line do not abort the whole file (spec.md
// §7): the parser records a diagnostic and resumes at the next line.
func Parse(text string) ([]ast.Sudo, *diagnostics.ParseError) {
	sm := sourcemap.New(preprocessContinuations(text))
	c := sourcemap.NewCursor(sm)
	p := &parser{c: c}

	var items []ast.Sudo
	for !c.Eof() {
		skipBlankAndNewlines(c)
		if c.Eof() {
			break
		}
		startLine := c.Pos().Line
		item, ok := p.parseLine()
		if ok {
			items = append(items, item)
		}
		// Resume at the next physical line regardless of how much of the
		// current one was consumed, so a malformed line never desyncs the
		// rest of the file.
		skipToNextLine(c, startLine)
	}
	return items, p.diags
}

func skipBlankAndNewlines(c *sourcemap.Cursor) {
	for {
		token.SkipBlanks(c)
		if c.Peek() == '\n' || c.Peek() == '\r' {
			c.Advance()
			continue
		}
		break
	}
}

// skipToNextLine advances the cursor past the remainder of the physical
// line startLine was on, landing just after the following newline (or at
// EOF). It is idempotent if the cursor already moved past the line.
func skipToNextLine(c *sourcemap.Cursor, startLine int) {
	for !c.Eof() && c.Pos().Line == startLine {
		c.Advance()
	}
}

// parseLine parses exactly one top-level item per spec.md §4.2's dispatch
// rule. ok is false for a line that produced no item because its error was
// already recorded; a comment line yields a SudoComment item.
func (p *parser) parseLine() (ast.Sudo, bool) {
	c := p.c
	pos := c.Pos()

	switch c.Peek() {
	case '#':
		return p.parseHashLine(pos)
	case '@':
		return p.parseAtInclude(pos)
	}

	// Otherwise: parse a SpecList<UserSpecifier>, then decide whether it is
	// a directive keyword or the start of a permission line.
	users, ok := parseSpecList(p, parseUserSpecifierItem)
	if !ok {
		p.errorf(diagnostics.Parse, pos, "expected a user list, include directive, or comment")
		return ast.Sudo{}, false
	}

	if kind, name, isKeyword := specKeyword(users[0]); isKeyword {
		if len(users) > 1 {
			p.errorf(diagnostics.Parse, pos, "directive keyword "+name+" cannot start a user list")
			return ast.Sudo{}, false
		}
		return p.parseDirective(kind, name, pos)
	}
	for _, s := range users[1:] {
		if _, name, isKeyword := specKeyword(s); isKeyword {
			p.errorf(diagnostics.Parse, pos, "directive keyword "+name+" in a non-initial position of a user list")
			return ast.Sudo{}, false
		}
	}

	return p.parsePermissionSpec(users, pos)
}

// specKeyword reports whether s is an unqualified, non-alias, non-group
// entry whose name matches a directive keyword.
func specKeyword(s ast.Spec[ast.UserSpecifier]) (ast.DirectiveKind, string, bool) {
	if !s.Allow || s.Value.Kind != ast.MetaOnly {
		return 0, "", false
	}
	u := s.Value.Item
	if u.Kind != ast.UserKind || u.ID.IsNumber {
		return 0, "", false
	}
	kind, ok := directiveKeywords[u.ID.Name]
	return kind, u.ID.Name, ok
}

// parseHashLine disambiguates the three '#'-prefixed shapes (spec.md §4.2,
// §6): a numeric-uid userlist entry ("#1000 ALL=..."), an include directive
// spelled with '#' instead of '@', or a plain comment.
func (p *parser) parseHashLine(pos sourcemap.Position) (ast.Sudo, bool) {
	c := p.c
	mark := c.Mark()
	c.Advance() // '#'

	if word, ok := peekWord(c); ok && (word == "include" || word == "includedir") {
		return p.parseIncludeBody(pos, word == "includedir")
	}

	if token.IsDigit(c.Peek()) {
		c.Reset(mark)
		users, ok := parseSpecList(p, parseUserSpecifierItem)
		if ok {
			return p.parsePermissionSpec(users, pos)
		}
	}

	c.Reset(mark)
	// Plain comment: consume to end of line.
	for c.Peek() != 0 && c.Peek() != '\n' {
		c.Advance()
	}
	return ast.Sudo{Kind: ast.SudoComment, Pos: pos}, true
}

// peekWord returns the next bare word at the cursor without requiring it
// to be a full identifier token (used to recognize "include"/"includedir"
// immediately after '#' or '@').
func peekWord(c *sourcemap.Cursor) (string, bool) {
	mark := c.Mark()
	start := c.Offset()
	for token.IsIdentCont(c.Peek()) {
		c.Advance()
	}
	word := c.SourceMap().Slice(start, c.Offset())
	c.Reset(mark)
	return word, word != ""
}

func (p *parser) parseAtInclude(pos sourcemap.Position) (ast.Sudo, bool) {
	c := p.c
	c.Advance() // '@'
	word, ok := peekWord(c)
	if !ok || (word != "include" && word != "includedir") {
		p.errorf(diagnostics.Parse, pos, "expected include or includedir after '@'")
		return ast.Sudo{}, false
	}
	return p.parseIncludeBody(pos, word == "includedir")
}

func (p *parser) parseIncludeBody(pos sourcemap.Position, isDir bool) (ast.Sudo, bool) {
	c := p.c
	word, _ := peekWord(c)
	for range word {
		c.Advance()
	}
	token.SkipBlanks(c)

	var path string
	if text, quoted, terminated := token.ScanQuoted(c); quoted {
		if !terminated {
			p.errorf(diagnostics.Lex, pos, "unterminated quoted include path")
			return ast.Sudo{}, false
		}
		path = text
	} else if text, ok := token.ScanPath(c); ok {
		path = text
	} else {
		p.errorf(diagnostics.Parse, pos, "expected a path after include directive")
		return ast.Sudo{}, false
	}

	kind := ast.SudoInclude
	if isDir {
		kind = ast.SudoIncludeDir
	}
	return ast.Sudo{Kind: kind, IncludePath: path, Pos: pos}, true
}

// parsePermissionSpec parses `hostlist "=" [runas] commandspec` triples
// separated by ':' (spec.md §4.2).
func (p *parser) parsePermissionSpec(users ast.SpecList[ast.UserSpecifier], pos sourcemap.Position) (ast.Sudo, bool) {
	c := p.c
	spec := &ast.PermissionSpec{Users: users, Pos: pos}

	for {
		hosts, ok := parseSpecList(p, parseHostnameItem)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a host list")
			return ast.Sudo{}, false
		}
		token.SkipBlanks(c)
		if r := parsec.ExpectSyntax('=')(c); r.Status == parsec.StatusHardError {
			p.errorf(diagnostics.Parse, r.Err.Pos, "expected '=' after host list")
			return ast.Sudo{}, false
		}

		var runas *ast.RunAs
		if c.Peek() == '(' {
			ra, ok := p.parseRunAs()
			if !ok {
				return ast.Sudo{}, false
			}
			runas = ra
		}

		cmds, ok := p.parseCommandSpecs()
		if !ok {
			return ast.Sudo{}, false
		}

		spec.Permissions = append(spec.Permissions, ast.Permission{Hosts: hosts, RunAs: runas, Commands: cmds})

		token.SkipBlanks(c)
		if sep := parsec.IsSyntax(':')(c); !sep.Value {
			break
		}
	}

	return ast.Sudo{Kind: ast.SudoSpec, Spec: spec, Pos: pos}, true
}

func (p *parser) parseRunAs() (*ast.RunAs, bool) {
	c := p.c
	c.Advance() // '('
	token.SkipBlanks(c)
	ra := &ast.RunAs{}

	if c.Peek() != ':' && c.Peek() != ')' {
		users, ok := parseSpecList(p, parseUserSpecifierItem)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a user list inside runas clause")
			return nil, false
		}
		ra.Users = users
		ra.HasUsers = true
	}
	token.SkipBlanks(c)
	if c.Peek() == ':' {
		c.Advance()
		token.SkipBlanks(c)
		if c.Peek() != ')' {
			groups, ok := parseSpecList(p, parseIdentifierItem)
			if !ok {
				p.errorf(diagnostics.Parse, c.Pos(), "expected a group list inside runas clause")
				return nil, false
			}
			ra.Groups = groups
			ra.HasGroups = true
		}
	}
	token.SkipBlanks(c)
	if r := parsec.ExpectSyntax(')')(c); r.Status == parsec.StatusHardError {
		p.errorf(diagnostics.Parse, r.Err.Pos, "expected ')' to close runas clause")
		return nil, false
	}
	return ra, true
}

// parseCommandSpecs parses a comma-separated list of CommandSpec, each a
// run of upper-case tag keywords (NOPASSWD:, NOEXEC:, TIMEOUT=N) followed
// by a Spec<Command> (spec.md §4.2). Tags are sticky within the list: once
// set they persist onto subsequent CommandSpecs until a tag of the same kind
// replaces them or PASSWD:/EXEC: clears them (spec.md §3 "Tags are sticky").
func (p *parser) parseCommandSpecs() ([]ast.CommandSpec, bool) {
	c := p.c
	var specs []ast.CommandSpec
	var sticky []ast.Tag

	for {
		pos := c.Pos()
		var tags []ast.Tag
		for {
			mark := c.Mark()
			word, ok := token.ScanUpperIdent(c)
			if !ok {
				break
			}
			switch word {
			case "NOPASSWD":
				if c.Peek() != ':' {
					c.Reset(mark)
					goto tagsDone
				}
				c.Advance()
				token.SkipBlanks(c)
				tags = append(tags, ast.Tag{Kind: ast.TagNoPasswd})
			case "PASSWD":
				if c.Peek() != ':' {
					c.Reset(mark)
					goto tagsDone
				}
				c.Advance()
				token.SkipBlanks(c)
				// explicit re-enable: drop any sticky NoPasswd tag
				sticky = dropTagKind(sticky, ast.TagNoPasswd)
			case "NOEXEC":
				if c.Peek() != ':' {
					c.Reset(mark)
					goto tagsDone
				}
				c.Advance()
				token.SkipBlanks(c)
				tags = append(tags, ast.Tag{Kind: ast.TagNoExec})
			case "EXEC":
				if c.Peek() != ':' {
					c.Reset(mark)
					goto tagsDone
				}
				c.Advance()
				token.SkipBlanks(c)
				sticky = dropTagKind(sticky, ast.TagNoExec)
			case "TIMEOUT":
				if c.Peek() != '=' {
					c.Reset(mark)
					goto tagsDone
				}
				c.Advance()
				n, ok := token.ScanDecimal(c)
				if !ok {
					p.errorf(diagnostics.Parse, c.Pos(), "TIMEOUT= requires a decimal number")
					return nil, false
				}
				token.SkipBlanks(c)
				tags = append(tags, ast.Tag{Kind: ast.TagTimeout, Seconds: n})
			default:
				// Not a recognized tag keyword: it is the command (or
				// command alias, or ALL) itself. Rewind and fall through.
				c.Reset(mark)
				goto tagsDone
			}
		}
	tagsDone:
		sticky = mergeTags(sticky, tags)

		cmdSpec, ok := p.parseCommandSpecItem(pos, sticky)
		if !ok {
			return nil, false
		}
		specs = append(specs, cmdSpec)

		token.SkipBlanks(c)
		if c.Peek() != ',' {
			break
		}
		c.Advance()
		token.SkipBlanks(c)
	}
	return specs, true
}

// mergeTags overlays fresh tags onto sticky, replacing any sticky entry of
// the same kind (TIMEOUT is not sticky in classic sudo the way NOPASSWD is,
// but recording it per-CommandSpec and overlaying is harmless and uniform).
func mergeTags(sticky, fresh []ast.Tag) []ast.Tag {
	out := append([]ast.Tag{}, sticky...)
	for _, t := range fresh {
		out = dropTagKind(out, t.Kind)
		out = append(out, t)
	}
	return out
}

func dropTagKind(tags []ast.Tag, kind ast.TagKind) []ast.Tag {
	out := tags[:0:0]
	for _, t := range tags {
		if t.Kind != kind {
			out = append(out, t)
		}
	}
	return out
}

func (p *parser) parseCommandSpecItem(pos sourcemap.Position, tags []ast.Tag) (ast.CommandSpec, bool) {
	cmd, ok := p.parseQualifiedCommand()
	if !ok {
		p.errorf(diagnostics.Parse, pos, "expected a command, command alias, or ALL")
		return ast.CommandSpec{}, false
	}
	// tags is the sticky set as of this entry (NOPASSWD/NOEXEC/TIMEOUT);
	// copy it so later merges do not alias this CommandSpec's slice.
	out := make([]ast.Tag, len(tags))
	copy(out, tags)
	return ast.CommandSpec{Tags: out, Command: cmd, Pos: pos}, true
}

func (p *parser) parseQualifiedCommand() (ast.Spec[ast.Command], bool) {
	return parseSpec(p, commandLiteral)
}

// parseCommandLiteral parses an absolute path, optional "sha256:..."-style
// digest prefix (SPEC_FULL.md §4.2), and an optional quoted argument-glob
// suffix.
func (p *parser) parseCommandLiteral() (ast.Command, bool) {
	c := p.c
	var digest *string
	mark := c.Mark()
	if word, ok := token.ScanIdent(c); ok && c.Peek() == ':' {
		c.Advance()
		if hex, ok := token.ScanPath(c); ok {
			d := word + ":" + hex
			digest = &d
			token.SkipBlanks(c)
		} else {
			c.Reset(mark)
		}
	} else {
		c.Reset(mark)
	}

	path, ok := token.ScanPath(c)
	if !ok || !strings.HasPrefix(path, "/") {
		return ast.Command{}, false
	}
	token.SkipBlanks(c)

	var args *string
	if text, quoted, terminated := token.ScanQuoted(c); quoted {
		if !terminated {
			p.errorf(diagnostics.Lex, c.Pos(), "unterminated quoted argument pattern")
			return ast.Command{}, false
		}
		args = &text
		token.SkipBlanks(c)
	}
	return ast.Command{Path: path, Args: args, Digest: digest}, true
}
