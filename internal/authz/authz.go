// Package authz implements the authorization evaluator: it matches a
// concrete request against a resolved policy and produces a Judgement plus
// the effective tags in force at the winning CommandSpec (spec.md §4.4).
//
// Evaluation never mutates the policy it is given and never performs I/O;
// the whole package is a pure function of (policy, request, alias tables).
package authz

import (
	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/dbsnapshot"
	"github.com/wharflab/sudocore/internal/semantic"
)

// Request is one authorization request (spec.md §6).
type Request struct {
	InvokerUser dbsnapshot.User
	InvokerHost string
	TargetUser  dbsnapshot.User
	TargetGroup dbsnapshot.Group
	CommandPath string
	CommandArgs []string
}

// Flags are the effective per-command tags carried by the winning
// CommandSpec (spec.md §3: "Judgement holds Option<Flags>").
type Flags struct {
	Passwd  bool
	NoExec  bool
	Timeout *int
}

// Judgement is the result of evaluating a Request. Allowed is false for a
// forbidden request, in which case Flags is the zero value and must not be
// consulted.
type Judgement struct {
	Allowed bool
	Flags   Flags
}

// Forbidden is the zero Judgement, returned whenever no CommandSpec in any
// admitted triple matches the request.
var Forbidden = Judgement{}

// evalCtx carries the alias tables through one evaluation. Group
// membership for %group UserSpecifier entries is read straight off
// req.InvokerUser.Groups (the Snapshot lookup that produced the User fills
// those in), so the evaluator never needs a Snapshot of its own.
type evalCtx struct {
	tables *semantic.Tables
}

// Evaluate matches req against the resolved alias tables and
// PermissionSpecs in tables, following the five-step algorithm in
// spec.md §4.4: filter by invoker user, then by invoker host, then by the
// runas clause, then fold the command list; the last matching CommandSpec
// across every admitted triple, in source order, decides the verdict
// (step 5 — "Forbid always wins over Allow at the same position" is just
// the ordinary last-match rule applied one level up).
func Evaluate(tables *semantic.Tables, req Request) Judgement {
	ctx := &evalCtx{tables: tables}

	var winner commandMatch
	matchedAny := false

	for _, spec := range tables.Permissions {
		if !ctx.userListMatches(spec.Users, req.InvokerUser) {
			continue
		}
		for _, perm := range spec.Permissions {
			if !ctx.hostListMatches(perm.Hosts, req.InvokerHost) {
				continue
			}
			if !ctx.runAsMatches(perm.RunAs, req.TargetUser, req.TargetGroup) {
				continue
			}
			if m, ok := ctx.commandListMatches(perm.Commands, req.CommandPath, req.CommandArgs); ok {
				winner = m
				matchedAny = true
			}
		}
	}

	if !matchedAny || !winner.allow {
		return Forbidden
	}
	return Judgement{Allowed: true, Flags: tagsToFlags(winner.spec.Tags)}
}

func tagsToFlags(tags []ast.Tag) Flags {
	f := Flags{Passwd: true}
	for _, t := range tags {
		switch t.Kind {
		case ast.TagNoPasswd:
			f.Passwd = false
		case ast.TagNoExec:
			f.NoExec = true
		case ast.TagTimeout:
			sec := t.Seconds
			f.Timeout = &sec
		}
	}
	return f
}
