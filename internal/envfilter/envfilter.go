// Package envfilter builds the target environment for an allowed command
// out of the invoker's environment, the request context, and the effective
// settings (spec.md §4.6). The filter is a pure function: same inputs, same
// output mapping, independent of the order the source environment arrived in.
package envfilter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wharflab/sudocore/internal/dbsnapshot"
	"github.com/wharflab/sudocore/internal/settings"
)

// EnvVar is one name=value pair. Environments are passed as ordered slices
// rather than maps because POSIX environments have no canonical order; the
// filter sorts its output by name so the result is deterministic anyway.
type EnvVar struct {
	Name  string
	Value string
}

// Context carries the request-side inputs of the filter (spec.md §4.6):
// who is invoking, who the command will run as, and the preserve knobs the
// CLI driver collected.
type Context struct {
	Invoker     dbsnapshot.User
	Target      dbsnapshot.User
	Hostname    string
	CommandPath string

	// PreserveEnv imports the whole source environment (sudo -E).
	PreserveEnv bool
	// PreserveEnvList imports only the named variables, on top of the
	// always-imported set. Independent of PreserveEnv.
	PreserveEnvList []string

	// Login requests login-mode defaults (sudo -i): the always-imported
	// set shrinks to TERM and the target user's HOME always wins.
	Login bool
}

// alwaysImported are the variables rule 2 copies from the source
// environment unconditionally (spec.md §4.6), LC_* handled separately as a
// prefix class.
var alwaysImported = []string{
	"TERM", "PATH", "DISPLAY", "COLORS", "HOSTNAME", "LS_COLORS",
	"LANG", "LANGUAGE",
}

// Build produces the target environment from source, applying the rules of
// spec.md §4.6 in order. The returned slice is sorted by variable name.
func Build(source []EnvVar, ctx Context, eff settings.Effective) []EnvVar {
	src := make(map[string]string, len(source))
	for _, v := range source {
		// First occurrence wins on duplicate names, matching execve
		// semantics for a duplicated environment block.
		if _, dup := src[v.Name]; !dup {
			src[v.Name] = v.Value
		}
	}

	out := map[string]string{}
	keep := func(name string) {
		if v, ok := src[name]; ok {
			out[name] = v
		}
	}

	// Rule 2: the unconditional imports, plus every LC_* and env_keep name.
	base := alwaysImported
	if ctx.Login {
		base = []string{"TERM"}
	}
	for _, name := range base {
		keep(name)
	}
	if !ctx.Login {
		for name := range src {
			if strings.HasPrefix(name, "LC_") {
				out[name] = src[name]
			}
		}
	}
	for name := range eff.Lists["env_keep"] {
		keep(name)
	}

	// Rule 3: env_check imports only values that pass the syntactic check.
	for name := range eff.Lists["env_check"] {
		if v, ok := src[name]; ok && checkedValueOK(v) {
			out[name] = v
		}
	}

	// Rule 4: preserve flag and preserve list.
	if ctx.PreserveEnv {
		for name, v := range src {
			out[name] = v
		}
	}
	for _, name := range ctx.PreserveEnvList {
		keep(name)
	}

	// Rule 2's PATH replacement applies after any import of PATH.
	if sp, ok := eff.Strings["secure_path"]; ok {
		out["PATH"] = sp
	}

	// Rules 5-8: the target user's identity variables. HOME already
	// imported by a preserve rule survives unless set_home or login mode
	// forces the target's home.
	if _, kept := out["HOME"]; !kept || eff.Flags["set_home"] || eff.Flags["always_set_home"] || ctx.Login {
		out["HOME"] = ctx.Target.Home
	}
	out["SHELL"] = ctx.Target.Shell
	out["USER"] = ctx.Target.Name
	out["LOGNAME"] = ctx.Target.Name
	out["MAIL"] = "/var/mail/" + ctx.Target.Name

	// Rule 9: the SUDO_* breadcrumbs.
	out["SUDO_USER"] = ctx.Invoker.Name
	out["SUDO_UID"] = strconv.Itoa(ctx.Invoker.UID)
	out["SUDO_GID"] = strconv.Itoa(ctx.Invoker.GID)
	out["SUDO_COMMAND"] = ctx.CommandPath

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make([]EnvVar, 0, len(names))
	for _, name := range names {
		env = append(env, EnvVar{Name: name, Value: out[name]})
	}
	return env
}

// checkedValueOK is the classic sudo env_check rule: decline values that
// contain a newline, '%', or '/', since those could be interpreted as
// format strings or paths by the target command (spec.md §4.6 rule 3).
func checkedValueOK(v string) bool {
	return !strings.ContainsAny(v, "%/\n")
}

// FromStrings converts an os.Environ-style "name=value" slice. Entries
// without '=' are dropped.
func FromStrings(environ []string) []EnvVar {
	out := make([]EnvVar, 0, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		out = append(out, EnvVar{Name: name, Value: value})
	}
	return out
}

// ToStrings renders env back into "name=value" form for execve-style
// consumers.
func ToStrings(env []EnvVar) []string {
	out := make([]string, 0, len(env))
	for _, v := range env {
		out = append(out, v.Name+"="+v.Value)
	}
	return out
}
