package authz

import (
	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/dbsnapshot"
	"github.com/wharflab/sudocore/internal/glob"
)

// evalSpec resolves one Qualified<Meta<T>> against pred, recursing through
// Alias(name) references via resolve. Parity composes by XNOR of the
// use-site sign and the definition-site decision (spec.md §3: "parity is
// the XOR of the `!` prefixes on both the alias use-site and the alias
// definition-site components" — XNOR on the booleans here because Allow is
// the sign with negation already folded in, not the raw `!` count).
//
// visited guards against runaway recursion on a reference cycle; real
// cycles are already rejected as Semantic diagnostics by internal/semantic,
// so this is a defensive backstop, not the primary defense (spec.md §9:
// "resolve on demand with a visited-set during evaluation").
func evalSpec[T any](spec ast.Spec[T], pred func(T) bool, resolve func(string) (ast.SpecList[T], bool), visited map[string]bool) (matched, allow bool) {
	switch spec.Value.Kind {
	case ast.MetaAll:
		return true, spec.Allow
	case ast.MetaOnly:
		if pred(spec.Value.Item) {
			return true, spec.Allow
		}
		return false, false
	case ast.MetaAlias:
		name := spec.Value.Alias
		if visited[name] {
			return false, false
		}
		list, ok := resolve(name)
		if !ok {
			return false, false
		}
		visited[name] = true
		m, bodyAllow := evalList(list, pred, resolve, visited)
		delete(visited, name)
		if !m {
			return false, false
		}
		return true, spec.Allow == bodyAllow
	default:
		return false, false
	}
}

// evalList folds a SpecList with last-match-wins semantics (spec.md §4.4:
// "scan the SpecList ... the last entry whose Meta matches decides").
// Scanning forward and overwriting on every match is equivalent to and
// simpler than scanning backward and stopping at the first match.
func evalList[T any](list ast.SpecList[T], pred func(T) bool, resolve func(string) (ast.SpecList[T], bool), visited map[string]bool) (matched, allow bool) {
	for _, spec := range list {
		if m, a := evalSpec(spec, pred, resolve, visited); m {
			matched, allow = true, a
		}
	}
	return matched, allow
}

func (ctx *evalCtx) resolveUserAlias(name string) (ast.SpecList[ast.UserSpecifier], bool) {
	list, ok := ctx.tables.UserAliases[name]
	return list, ok
}

func (ctx *evalCtx) resolveRunasAlias(name string) (ast.SpecList[ast.UserSpecifier], bool) {
	if list, ok := ctx.tables.RunasAliases[name]; ok {
		return list, ok
	}
	return ctx.tables.UserAliases[name], hasKey(ctx.tables.UserAliases, name)
}

func (ctx *evalCtx) resolveHostAlias(name string) (ast.SpecList[ast.Hostname], bool) {
	list, ok := ctx.tables.HostAliases[name]
	return list, ok
}

func (ctx *evalCtx) resolveCmndAlias(name string) (ast.SpecList[ast.Command], bool) {
	list, ok := ctx.tables.CmndAliases[name]
	return list, ok
}

// resolveGroupAlias never resolves: classic sudoers has no alias namespace
// for the bare group identifiers inside a runas group list, so an
// upper-case name there is syntactically an Alias(name) per the generic
// grammar but always fails to resolve, the same way a netgroup reference
// fails (spec.md §7 "Unsupported").
func (ctx *evalCtx) resolveGroupAlias(string) (ast.SpecList[ast.Identifier], bool) {
	return nil, false
}

func hasKey[K comparable, V any](m map[K]V, k K) bool {
	_, ok := m[k]
	return ok
}

func (ctx *evalCtx) userListMatches(list ast.SpecList[ast.UserSpecifier], u dbsnapshot.User) bool {
	pred := func(spec ast.UserSpecifier) bool { return ctx.userSpecifierMatches(spec, u) }
	m, allow := evalList(list, pred, ctx.resolveUserAlias, map[string]bool{})
	return m && allow
}

func (ctx *evalCtx) userSpecifierMatches(spec ast.UserSpecifier, u dbsnapshot.User) bool {
	switch spec.Kind {
	case ast.UserKind:
		return identifierMatchesUser(spec.ID, u)
	case ast.GroupKind:
		return userBelongsToGroup(u, spec.ID)
	default:
		// NonunixGroupKind and NetgroupKind: recognized, unsupported.
		return false
	}
}

func identifierMatchesUser(id ast.Identifier, u dbsnapshot.User) bool {
	if id.IsNumber {
		return u.UID == id.Number
	}
	return u.Name == id.Name
}

// userBelongsToGroup reports whether u carries a group (in its already
// resolved Groups list) matching id by name or by gid.
func userBelongsToGroup(u dbsnapshot.User, id ast.Identifier) bool {
	for _, g := range u.Groups {
		if id.IsNumber {
			if g.GID == id.Number {
				return true
			}
		} else if g.Name == id.Name {
			return true
		}
	}
	return false
}

func (ctx *evalCtx) hostListMatches(list ast.SpecList[ast.Hostname], host string) bool {
	pred := func(h ast.Hostname) bool {
		if h.IsNetgroup {
			return false
		}
		return h.Name == host
	}
	m, allow := evalList(list, pred, ctx.resolveHostAlias, map[string]bool{})
	return m && allow
}

func (ctx *evalCtx) runAsMatches(ra *ast.RunAs, target dbsnapshot.User, targetGroup dbsnapshot.Group) bool {
	usersOK := ctx.runAsUsersMatch(ra, target)
	groupsOK := ctx.runAsGroupsMatch(ra, targetGroup)
	return usersOK && groupsOK
}

func (ctx *evalCtx) runAsUsersMatch(ra *ast.RunAs, target dbsnapshot.User) bool {
	if ra == nil || !ra.HasUsers {
		return target.Name == "root" || target.UID == 0
	}
	pred := func(spec ast.UserSpecifier) bool { return ctx.userSpecifierMatches(spec, target) }
	m, allow := evalList(ra.Users, pred, ctx.resolveRunasAlias, map[string]bool{})
	return m && allow
}

func (ctx *evalCtx) runAsGroupsMatch(ra *ast.RunAs, targetGroup dbsnapshot.Group) bool {
	if ra == nil || !ra.HasGroups {
		return true
	}
	pred := func(id ast.Identifier) bool {
		if id.IsNumber {
			return id.Number == targetGroup.GID
		}
		return id.Name == targetGroup.Name
	}
	m, allow := evalList(ra.Groups, pred, ctx.resolveGroupAlias, map[string]bool{})
	return m && allow
}

// commandMatch is one CommandSpec's matching outcome against a request.
type commandMatch struct {
	spec  *ast.CommandSpec
	allow bool
}

// commandListMatches scans cmds in source order and returns the last
// matching CommandSpec, whether it ends up winning the whole evaluation or
// is itself later overridden by another admitted triple (spec.md §4.4 step
// 5). Tags on each CommandSpec are already the sticky-resolved set the
// parser recorded (spec.md §3: tags persist forward until explicitly
// reset), so no running tag state is needed here.
func (ctx *evalCtx) commandListMatches(cmds []ast.CommandSpec, path string, args []string) (commandMatch, bool) {
	var winner commandMatch
	matchedAny := false

	for i := range cmds {
		c := &cmds[i]
		pred := func(cmd ast.Command) bool { return glob.MatchPath(cmd.Path, path) && commandArgsMatch(cmd.Args, args) }
		m, allow := evalSpec(c.Command, pred, ctx.resolveCmndAlias, map[string]bool{})
		if m {
			matchedAny = true
			winner = commandMatch{spec: c, allow: allow}
		}
	}
	return winner, matchedAny
}

func commandArgsMatch(pattern *string, args []string) bool {
	if pattern == nil {
		return true
	}
	return glob.MatchArgs(*pattern, args)
}
