// Package settings folds a sudoers policy's Defaults directives into the
// concrete flag/string/list maps the environment filter and CLI shell
// consume (spec.md §4.5), honoring the scoped-Defaults fold order added in
// SPEC_FULL.md §4.2: global entries fold first, in source order, then
// matching scoped entries (Defaults@host / Defaults:user / Defaults>runas),
// also in source order, so a scoped entry can override a global one for the
// request actually being evaluated.
package settings

import (
	"fmt"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/diagnostics"
)

// Effective is the materialized result of folding every Defaults directive
// that applies to one request (SPEC_FULL.md §3).
type Effective struct {
	Flags   map[string]bool
	Strings map[string]string
	Lists   map[string]map[string]struct{}
}

func newEffective() Effective {
	return Effective{
		Flags:   map[string]bool{},
		Strings: map[string]string{},
		Lists:   map[string]map[string]struct{}{},
	}
}

// ListValues returns the members of list name as a slice, for callers that
// want to range over it without touching the underlying set directly.
func (e Effective) ListValues(name string) []string {
	set := e.Lists[name]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// Scope is the (host, user, runas-user) triple a scoped Defaults entry is
// matched against. It is a plain value type so this package has no
// dependency on internal/authz's Request shape.
type Scope struct {
	Host      string
	User      string
	RunAsUser string
}

func scopeApplies(d *ast.Defaults, s Scope) bool {
	switch d.Scope {
	case ast.ScopeAll:
		return true
	case ast.ScopeHost:
		return d.ScopeName == s.Host
	case ast.ScopeUser:
		return d.ScopeName == s.User
	case ast.ScopeRunAs:
		return d.ScopeName == s.RunAsUser
	default:
		return false
	}
}

// Fold applies every Defaults directive in defs that is in scope for s, in
// two passes (global first, then scoped) each preserving source order
// (spec.md §4.5; SPEC_FULL.md §4.2 for the scoped pass). Type mismatches
// against the known-settings registry produce Semantic diagnostics but do
// not stop the fold (spec.md §4.5: "unknown names are accepted and stored").
func Fold(defs []*ast.Defaults, s Scope) (Effective, *diagnostics.ParseError) {
	eff := newEffective()
	var diags *diagnostics.ParseError

	apply := func(d *ast.Defaults) {
		for _, entry := range d.Entries {
			diags = foldEntry(eff, entry, diags)
		}
	}

	for _, d := range defs {
		if d.Scope == ast.ScopeAll {
			apply(d)
		}
	}
	for _, d := range defs {
		if d.Scope != ast.ScopeAll && scopeApplies(d, s) {
			apply(d)
		}
	}

	return eff, diags
}

func foldEntry(eff Effective, entry ast.DefaultsEntry, diags *diagnostics.ParseError) *diagnostics.ParseError {
	wantShape, known := ShapeOf(entry.Name)
	gotShape := shapeOfValue(entry.Value)
	if known && wantShape != gotShape {
		diags = diagnostics.Append(diags, diagnostics.Diagnostic{
			Kind:    diagnostics.Semantic,
			Message: fmt.Sprintf("Defaults %q expects a %s value, got a %s value", entry.Name, shapeName(wantShape), shapeName(gotShape)),
			Code:    "defaults-type-mismatch",
		})
	}

	switch entry.Value.Kind {
	case ast.DefaultFlag:
		eff.Flags[entry.Name] = entry.Value.Flag
	case ast.DefaultText:
		eff.Strings[entry.Name] = entry.Value.Text
	case ast.DefaultList:
		set := eff.Lists[entry.Name]
		if set == nil {
			set = map[string]struct{}{}
		}
		switch entry.Value.Mode {
		case ast.ModeSet:
			set = map[string]struct{}{}
			for _, v := range entry.Value.List {
				set[v] = struct{}{}
			}
		case ast.ModeAdd:
			for _, v := range entry.Value.List {
				set[v] = struct{}{}
			}
		case ast.ModeDel:
			for _, v := range entry.Value.List {
				delete(set, v)
			}
		}
		eff.Lists[entry.Name] = set
	}
	return diags
}

func shapeOfValue(v ast.DefaultValue) Shape {
	switch v.Kind {
	case ast.DefaultFlag:
		return ShapeFlag
	case ast.DefaultText:
		return ShapeText
	default:
		return ShapeList
	}
}

func shapeName(s Shape) string {
	switch s {
	case ShapeFlag:
		return "flag"
	case ShapeText:
		return "text"
	default:
		return "list"
	}
}
