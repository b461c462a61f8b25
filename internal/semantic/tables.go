// Package semantic builds the four alias namespaces out of a parsed
// sudoers item stream, detects duplicate definitions and reference
// cycles, and checks that every alias mentioned in a PermissionSpec or an
// alias body resolves within its namespace (spec.md §4.3).
//
// It does not expand aliases: resolution stays lazy, so the parity
// recorded at each use-site combines correctly with the parity recorded
// at the definition site when internal/authz walks a SpecList.
package semantic

import (
	"github.com/wharflab/sudocore/internal/ast"
)

// Tables holds the four alias namespaces, plus the PermissionSpecs and
// Defaults directives in source order, once includes have been flattened
// by the caller (spec.md §6: include resolution is a collaborator concern).
type Tables struct {
	UserAliases  map[string]ast.SpecList[ast.UserSpecifier]
	HostAliases  map[string]ast.SpecList[ast.Hostname]
	CmndAliases  map[string]ast.SpecList[ast.Command]
	RunasAliases map[string]ast.SpecList[ast.UserSpecifier]

	Permissions []*ast.PermissionSpec
	Defaults    []*ast.Defaults
}

func newTables() *Tables {
	return &Tables{
		UserAliases:  map[string]ast.SpecList[ast.UserSpecifier]{},
		HostAliases:  map[string]ast.SpecList[ast.Hostname]{},
		CmndAliases:  map[string]ast.SpecList[ast.Command]{},
		RunasAliases: map[string]ast.SpecList[ast.UserSpecifier]{},
	}
}
