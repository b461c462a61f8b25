package semantic

import (
	"testing"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/sudoers"
)

func parseOrFail(t *testing.T, src string) []ast.Sudo {
	t.Helper()
	items, err := sudoers.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return items
}

func TestAnalyzeResolvesAliasReference(t *testing.T) {
	items := parseOrFail(t, "User_Alias ADMINS = alice, bob\nADMINS ALL=(ALL) ALL\n")
	tables, diags := Analyze(items)
	if diags != nil {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(tables.UserAliases["ADMINS"]) != 2 {
		t.Fatalf("expected 2 entries in ADMINS, got %d", len(tables.UserAliases["ADMINS"]))
	}
	if len(tables.Permissions) != 1 {
		t.Fatalf("expected 1 permission spec, got %d", len(tables.Permissions))
	}
}

func TestAnalyzeDetectsUndefinedAlias(t *testing.T) {
	items := parseOrFail(t, "GHOSTS ALL=(ALL) ALL\n")
	_, diags := Analyze(items)
	if diags == nil {
		t.Fatalf("expected an undefined-alias diagnostic")
	}
}

func TestAnalyzeDetectsDuplicateAlias(t *testing.T) {
	items := parseOrFail(t, "User_Alias ADMINS = alice\nUser_Alias ADMINS = bob\n")
	_, diags := Analyze(items)
	if diags == nil {
		t.Fatalf("expected a duplicate-alias diagnostic")
	}
}

func TestAnalyzeDetectsCycle(t *testing.T) {
	items := parseOrFail(t, "User_Alias A = B\nUser_Alias B = A\n")
	_, diags := Analyze(items)
	if diags == nil {
		t.Fatalf("expected a cyclic-alias diagnostic")
	}
}

func TestAnalyzeAllowsDiamondReference(t *testing.T) {
	items := parseOrFail(t, "User_Alias LEAF = alice\nUser_Alias A = LEAF\nUser_Alias B = LEAF\nALL ALL=(ALL) ALL\n")
	_, diags := Analyze(items)
	if diags != nil {
		t.Fatalf("unexpected diagnostics on acyclic diamond: %v", diags)
	}
}
