package sudoers

import (
	"strings"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/settings"
	"github.com/wharflab/sudocore/internal/sourcemap"
	"github.com/wharflab/sudocore/internal/token"
)

// parseDirective parses the body of a User_Alias/Host_Alias/Cmnd_Alias/
// Runas_Alias/Defaults line once the leading keyword has already been
// recognized and consumed as part of the userlist (spec.md §4.2: "hard-
// error if the list had more than one element" is enforced by parseLine,
// which only calls this when specKeyword matched a one-entry user list).
func (p *parser) parseDirective(kind ast.DirectiveKind, _ string, pos sourcemap.Position) (ast.Sudo, bool) {
	if kind == ast.DefaultsDirective {
		return p.parseDefaultsDirective(pos)
	}

	var defs []ast.AliasDef
	for {
		def, ok := p.parseOneAliasDef(kind)
		if !ok {
			return ast.Sudo{}, false
		}
		defs = append(defs, def)

		token.SkipBlanks(p.c)
		if p.c.Peek() != ':' {
			break
		}
		p.c.Advance()
		token.SkipBlanks(p.c)
	}
	return ast.Sudo{Kind: ast.SudoDecl, Decl: &ast.Directive{Kind: kind, Aliases: defs, Pos: pos}, Pos: pos}, true
}

// parseOneAliasDef parses `NAME = spec, spec, ...` for one alias namespace.
func (p *parser) parseOneAliasDef(kind ast.DirectiveKind) (ast.AliasDef, bool) {
	c := p.c
	name, ok := token.ScanUpperIdent(c)
	if !ok {
		p.errorf(diagnostics.Parse, c.Pos(), "expected an alias name")
		return ast.AliasDef{}, false
	}
	token.SkipBlanks(c)
	if c.Peek() != '=' {
		p.errorf(diagnostics.Parse, c.Pos(), "expected '=' after alias name")
		return ast.AliasDef{}, false
	}
	c.Advance()
	token.SkipBlanks(c)

	def := ast.AliasDef{Name: name}
	switch kind {
	case ast.UserAlias, ast.RunasAlias:
		body, ok := parseSpecList(p, parseUserSpecifierItem)
		if !ok {
			return ast.AliasDef{}, false
		}
		if kind == ast.UserAlias {
			def.UserBody = body
		} else {
			def.RunasBody = body
		}
	case ast.HostAlias:
		body, ok := parseSpecList(p, parseHostnameItem)
		if !ok {
			return ast.AliasDef{}, false
		}
		def.HostBody = body
	case ast.CmndAlias:
		body, ok := parseSpecList(p, commandLiteral)
		if !ok {
			return ast.AliasDef{}, false
		}
		def.CmndBody = body
	}
	return def, true
}

// parseDefaultsDirective parses `Defaults[@host|:user|>runas] name<op>value,
// ...` (spec.md §4.2, SPEC_FULL.md §4.2 for the scoped forms).
func (p *parser) parseDefaultsDirective(pos sourcemap.Position) (ast.Sudo, bool) {
	c := p.c
	d := &ast.Defaults{Scope: ast.ScopeAll}

	switch c.Peek() {
	case '@':
		c.Advance()
		name, ok := token.ScanIdent(c)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a host name after Defaults@")
			return ast.Sudo{}, false
		}
		d.Scope, d.ScopeName = ast.ScopeHost, name
	case ':':
		c.Advance()
		name, ok := token.ScanIdent(c)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a user name after Defaults:")
			return ast.Sudo{}, false
		}
		d.Scope, d.ScopeName = ast.ScopeUser, name
	case '>':
		c.Advance()
		name, ok := token.ScanIdent(c)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a user name after Defaults>")
			return ast.Sudo{}, false
		}
		d.Scope, d.ScopeName = ast.ScopeRunAs, name
	}
	token.SkipBlanks(c)

	for {
		entry, ok := p.parseDefaultsEntry()
		if !ok {
			return ast.Sudo{}, false
		}
		d.Entries = append(d.Entries, entry)

		token.SkipBlanks(c)
		if c.Peek() != ',' {
			break
		}
		c.Advance()
		token.SkipBlanks(c)
	}

	return ast.Sudo{Kind: ast.SudoDecl, Decl: &ast.Directive{Kind: ast.DefaultsDirective, Defaults: d, Pos: pos}, Pos: pos}, true
}

// parseDefaultsEntry parses one of the five shapes in spec.md §4.2:
// name | !name | name=value | name+=value | name-=value.
func (p *parser) parseDefaultsEntry() (ast.DefaultsEntry, bool) {
	c := p.c
	negate := false
	if c.Peek() == '!' {
		negate = true
		c.Advance()
		token.SkipBlanks(c)
	}
	name, ok := token.ScanIdent(c)
	if !ok {
		p.errorf(diagnostics.Parse, c.Pos(), "expected a Defaults setting name")
		return ast.DefaultsEntry{}, false
	}

	mark := c.Mark()
	token.SkipBlanks(c)
	var op byte
	switch c.Peek() {
	case '+':
		if c.PeekAt(1) == '=' {
			c.Advance()
			c.Advance()
			op = '+'
		}
	case '-':
		if c.PeekAt(1) == '=' {
			c.Advance()
			c.Advance()
			op = '-'
		}
	case '=':
		c.Advance()
		op = '='
	}
	if op == 0 {
		c.Reset(mark)
		token.SkipBlanks(c)
		return ast.DefaultsEntry{Name: name, Value: ast.DefaultValue{Kind: ast.DefaultFlag, Flag: !negate}}, true
	}
	if negate {
		p.errorf(diagnostics.Parse, c.Pos(), "'!' prefix cannot be combined with a value assignment")
		return ast.DefaultsEntry{}, false
	}
	token.SkipBlanks(c)

	value, ok := p.parseDefaultsValue(name, op)
	if !ok {
		return ast.DefaultsEntry{}, false
	}
	return ast.DefaultsEntry{Name: name, Value: value}, true
}

// parseDefaultsValue parses the right-hand side: either a quoted
// comma-separated list, a single bare token (treated as a one-element list
// when op is + or -, or as text when op is =), per spec.md §4.2 ("List
// values may be a single bare token or a quoted comma-separated sequence").
// A bare single-item '=' assignment is ambiguous between Text and a
// one-element List(Set, …); the known-settings registry (SPEC_FULL.md §4.5)
// breaks the tie when name is a recognized list setting such as env_keep.
func (p *parser) parseDefaultsValue(name string, op byte) (ast.DefaultValue, bool) {
	c := p.c
	wantsList := op != '='
	if op == '=' {
		if shape, ok := settings.ShapeOf(name); ok && shape == settings.ShapeList {
			wantsList = true
		}
	}

	if text, quoted, terminated := token.ScanQuoted(c); quoted {
		if !terminated {
			p.errorf(diagnostics.Lex, c.Pos(), "unterminated quoted Defaults value")
			return ast.DefaultValue{}, false
		}
		token.SkipBlanks(c)
		if !wantsList && !strings.Contains(text, ",") {
			return ast.DefaultValue{Kind: ast.DefaultText, Text: text}, true
		}
		items := splitAndTrim(text)
		return ast.DefaultValue{Kind: ast.DefaultList, Mode: modeFromOp(op), List: items}, true
	}

	// A bare value is a path-like token that may also contain ':', as in
	// secure_path=/usr/sbin:/usr/bin.
	start := c.Offset()
	for token.IsPathChar(c.Peek()) || c.Peek() == ':' {
		c.Advance()
	}
	bare := c.SourceMap().Slice(start, c.Offset())
	if bare == "" {
		p.errorf(diagnostics.Parse, c.Pos(), "expected a Defaults value")
		return ast.DefaultValue{}, false
	}
	token.SkipBlanks(c)
	if !wantsList {
		return ast.DefaultValue{Kind: ast.DefaultText, Text: bare}, true
	}
	return ast.DefaultValue{Kind: ast.DefaultList, Mode: modeFromOp(op), List: []string{bare}}, true
}

func modeFromOp(op byte) ast.DefaultsMode {
	switch op {
	case '+':
		return ast.ModeAdd
	case '-':
		return ast.ModeDel
	default:
		return ast.ModeSet
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		t := strings.TrimSpace(part)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
