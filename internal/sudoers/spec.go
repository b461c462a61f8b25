package sudoers

import (
	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/parsec"
	"github.com/wharflab/sudocore/internal/sourcemap"
	"github.com/wharflab/sudocore/internal/token"
)

// literalParser parses the Only(T) payload of a Meta<T>: whatever is left
// once ALL and a bare upper-case alias name have been ruled out.
type literalParser[T any] func(p *parser) (T, bool)

// specItem adapts parseSpec to the parsec.Parser shape so the list grammar
// below can reuse parsec.Many's separator handling. A failed parseSpec is a
// soft reject at this grain: the literal parsers record their own hard
// diagnostics before returning false.
func specItem[T any](p *parser, lit literalParser[T]) parsec.Parser[ast.Spec[T]] {
	return func(*sourcemap.Cursor) parsec.Result[ast.Spec[T]] {
		s, ok := parseSpec(p, lit)
		if !ok {
			return parsec.SoftReject[ast.Spec[T]]()
		}
		return parsec.Accept(s)
	}
}

// parseSpecList parses Spec<T> entries separated by ',', requiring at
// least one (spec.md §4.1 "many... requires at least one").
func parseSpecList[T any](p *parser, lit literalParser[T]) (ast.SpecList[T], bool) {
	r := parsec.Many(specItem(p, lit), ',')(p.c)
	if r.Status != parsec.StatusAccept {
		return nil, false
	}
	return ast.SpecList[T](r.Value), true
}

// parseSpec parses a Qualified<Meta<T>>: a run of '!' (folded by parity)
// followed by a Meta<T> (spec.md §3).
func parseSpec[T any](p *parser, lit literalParser[T]) (ast.Spec[T], bool) {
	c := p.c
	allow := true
	for c.Peek() == '!' {
		c.Advance()
		token.SkipBlanks(c)
		allow = !allow
	}
	meta, ok := parseMeta(p, lit)
	if !ok {
		return ast.Spec[T]{}, false
	}
	token.SkipBlanks(c)
	return ast.Spec[T]{Allow: allow, Value: meta}, true
}

// parseMeta parses All, Alias(name), or Only(T) (spec.md §3): a bare
// upper-case identifier is an Alias unless it spells the literal keyword
// ALL, in which case it is the wildcard. Anything else falls through to
// the literal parser for T.
func parseMeta[T any](p *parser, lit literalParser[T]) (ast.Meta[T], bool) {
	c := p.c
	mark := c.Mark()
	// An upper-case prefix of a longer word (the "U" of User_Alias) is not
	// an identifier of its own: only a whole upper-case token is an alias.
	if name, ok := token.ScanUpperIdent(c); ok && !token.IsIdentCont(c.Peek()) {
		if name == "ALL" {
			return ast.Meta[T]{Kind: ast.MetaAll}, true
		}
		return ast.Meta[T]{Kind: ast.MetaAlias, Alias: name}, true
	}
	c.Reset(mark)
	item, ok := lit(p)
	if !ok {
		return ast.Meta[T]{}, false
	}
	return ast.Meta[T]{Kind: ast.MetaOnly, Item: item}, true
}

// parseIdentifierItem parses a plain Identifier: a name or a #N numeric id
// (spec.md §3).
func parseIdentifierItem(p *parser) (ast.Identifier, bool) {
	c := p.c
	if c.Peek() == '#' {
		c.Advance()
		n, ok := token.ScanDecimal(c)
		if !ok {
			p.errorf(diagnostics.Parse, c.Pos(), "expected a decimal number after '#'")
			return ast.Identifier{}, false
		}
		return ast.Identifier{IsNumber: true, Number: n}, true
	}
	name, ok := token.ScanIdent(c)
	if !ok {
		return ast.Identifier{}, false
	}
	return ast.Identifier{Name: name}, true
}

func parseUserSpecifierItem(p *parser) (ast.UserSpecifier, bool) {
	c := p.c
	switch c.Peek() {
	case '%':
		c.Advance()
		if c.Peek() == ':' {
			c.Advance()
			id, ok := parseIdentifierItem(p)
			if !ok {
				return ast.UserSpecifier{}, false
			}
			return ast.UserSpecifier{Kind: ast.NonunixGroupKind, ID: id}, true
		}
		id, ok := parseIdentifierItem(p)
		if !ok {
			return ast.UserSpecifier{}, false
		}
		return ast.UserSpecifier{Kind: ast.GroupKind, ID: id}, true
	case '+':
		c.Advance()
		name, ok := token.ScanIdent(c)
		if !ok {
			return ast.UserSpecifier{}, false
		}
		return ast.UserSpecifier{Kind: ast.NetgroupKind, ID: ast.Identifier{Name: name}}, true
	default:
		id, ok := parseIdentifierItem(p)
		if !ok {
			return ast.UserSpecifier{}, false
		}
		return ast.UserSpecifier{Kind: ast.UserKind, ID: id}, true
	}
}

func parseHostnameItem(p *parser) (ast.Hostname, bool) {
	c := p.c
	if c.Peek() == '+' {
		c.Advance()
		name, ok := token.ScanIdent(c)
		if !ok {
			return ast.Hostname{}, false
		}
		return ast.Hostname{Name: name, IsNetgroup: true}, true
	}
	name, ok := token.ScanIdent(c)
	if !ok {
		return ast.Hostname{}, false
	}
	return ast.Hostname{Name: name}, true
}

// commandLiteral adapts (*parser).parseCommandLiteral to the literalParser
// shape so the CommandSpec grammar in parser.go can reuse parseSpec/parseMeta.
func commandLiteral(p *parser) (ast.Command, bool) {
	return p.parseCommandLiteral()
}
