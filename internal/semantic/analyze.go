package semantic

import (
	"fmt"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/sourcemap"
)

// Analyze partitions a flat item stream into the four alias namespaces plus
// PermissionSpecs and Defaults, then validates it: duplicate alias names,
// reference cycles, and undefined alias references are all Semantic
// diagnostics (spec.md §4.3, §7). Analyze does not itself parse includes;
// items is assumed already flattened by the caller.
func Analyze(items []ast.Sudo) (*Tables, *diagnostics.ParseError) {
	t := newTables()
	var diags *diagnostics.ParseError

	for _, item := range items {
		switch item.Kind {
		case ast.SudoDecl:
			diags = collectDecl(t, item.Decl, diags)
		case ast.SudoSpec:
			t.Permissions = append(t.Permissions, item.Spec)
		}
	}

	diags = checkCycles(t, diags)
	diags = checkUndefined(t, diags)
	return t, diags
}

func collectDecl(t *Tables, d *ast.Directive, diags *diagnostics.ParseError) *diagnostics.ParseError {
	if d.Kind == ast.DefaultsDirective {
		t.Defaults = append(t.Defaults, d.Defaults)
		return diags
	}
	for _, def := range d.Aliases {
		diags = addAliasDef(t, d.Kind, def, d.Pos, diags)
	}
	return diags
}

func addAliasDef(t *Tables, kind ast.DirectiveKind, def ast.AliasDef, pos sourcemap.Position, diags *diagnostics.ParseError) *diagnostics.ParseError {
	dup := func(table string) *diagnostics.ParseError {
		return diagnostics.Append(diags, diagnostics.Diagnostic{
			Kind: diagnostics.Semantic, Pos: pos,
			Message: fmt.Sprintf("duplicate %s definition %q", table, def.Name),
		})
	}
	switch kind {
	case ast.UserAlias:
		if _, exists := t.UserAliases[def.Name]; exists {
			return dup("User_Alias")
		}
		t.UserAliases[def.Name] = def.UserBody
	case ast.HostAlias:
		if _, exists := t.HostAliases[def.Name]; exists {
			return dup("Host_Alias")
		}
		t.HostAliases[def.Name] = def.HostBody
	case ast.CmndAlias:
		if _, exists := t.CmndAliases[def.Name]; exists {
			return dup("Cmnd_Alias")
		}
		t.CmndAliases[def.Name] = def.CmndBody
	case ast.RunasAlias:
		if _, exists := t.RunasAliases[def.Name]; exists {
			return dup("Runas_Alias")
		}
		t.RunasAliases[def.Name] = def.RunasBody
	}
	return diags
}

// referencedAliases collects the Alias(name) entries of a SpecList, in
// order, regardless of their qualification (spec.md §3: parity is a
// use-site concern, not a reference-graph one).
func referencedAliases[T any](list ast.SpecList[T]) []string {
	var names []string
	for _, spec := range list {
		if spec.Value.Kind == ast.MetaAlias {
			names = append(names, spec.Value.Alias)
		}
	}
	return names
}

func checkCycles(t *Tables, diags *diagnostics.ParseError) *diagnostics.ParseError {
	diags = checkNamespaceCycles("User_Alias", t.UserAliases, diags)
	diags = checkNamespaceCycles("Host_Alias", t.HostAliases, diags)
	diags = checkNamespaceCycles("Cmnd_Alias", t.CmndAliases, diags)
	diags = checkNamespaceCycles("Runas_Alias", t.RunasAliases, diags)
	return diags
}

func checkNamespaceCycles[T any](label string, table map[string]ast.SpecList[T], diags *diagnostics.ParseError) *diagnostics.ParseError {
	g := newAliasGraph()
	for name, body := range table {
		for _, ref := range referencedAliases(body) {
			g.addEdge(name, ref)
		}
	}
	reported := map[string]bool{}
	for name := range table {
		cyc := g.cycle(name)
		if cyc == nil {
			continue
		}
		key := fmt.Sprint(cyc)
		if reported[key] {
			continue
		}
		reported[key] = true
		diags = diagnostics.Append(diags, diagnostics.Diagnostic{
			Kind:    diagnostics.Semantic,
			Message: fmt.Sprintf("cyclic %s reference: %s", label, cycleString(cyc)),
		})
	}
	return diags
}

func cycleString(cyc []string) string {
	s := ""
	for i, n := range cyc {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}

// checkUndefined reports every alias reference, in an alias body or a
// PermissionSpec, that does not resolve within its namespace.
func checkUndefined(t *Tables, diags *diagnostics.ParseError) *diagnostics.ParseError {
	undef := func(label, name string, pos sourcemap.Position) {
		diags = diagnostics.Append(diags, diagnostics.Diagnostic{
			Kind: diagnostics.Semantic, Pos: pos,
			Message: fmt.Sprintf("undefined %s %q", label, name),
		})
	}

	for _, body := range t.UserAliases {
		for _, ref := range referencedAliases(body) {
			if _, ok := t.UserAliases[ref]; !ok {
				undef("User_Alias", ref, sourcemap.Position{})
			}
		}
	}
	for _, body := range t.HostAliases {
		for _, ref := range referencedAliases(body) {
			if _, ok := t.HostAliases[ref]; !ok {
				undef("Host_Alias", ref, sourcemap.Position{})
			}
		}
	}
	for _, body := range t.CmndAliases {
		for _, ref := range referencedAliases(body) {
			if _, ok := t.CmndAliases[ref]; !ok {
				undef("Cmnd_Alias", ref, sourcemap.Position{})
			}
		}
	}
	for _, body := range t.RunasAliases {
		for _, ref := range referencedAliases(body) {
			if _, ok := t.RunasAliases[ref]; !ok {
				undef("Runas_Alias", ref, sourcemap.Position{})
			}
		}
	}

	for _, spec := range t.Permissions {
		for _, ref := range referencedAliases(spec.Users) {
			if _, ok := t.UserAliases[ref]; !ok {
				undef("User_Alias", ref, spec.Pos)
			}
		}
		for _, perm := range spec.Permissions {
			for _, ref := range referencedAliases(perm.Hosts) {
				if _, ok := t.HostAliases[ref]; !ok {
					undef("Host_Alias", ref, spec.Pos)
				}
			}
			if perm.RunAs != nil {
				for _, ref := range referencedAliases(perm.RunAs.Users) {
					if _, ok := t.UserAliases[ref]; !ok {
						if _, ok := t.RunasAliases[ref]; !ok {
							undef("Runas_Alias", ref, spec.Pos)
						}
					}
				}
			}
			for _, cs := range perm.Commands {
				if cs.Command.Value.Kind == ast.MetaAlias {
					ref := cs.Command.Value.Alias
					if _, ok := t.CmndAliases[ref]; !ok {
						undef("Cmnd_Alias", ref, cs.Pos)
					}
				}
			}
		}
	}

	return diags
}
