// Package policy ties the parser, the semantic analyzer, and the settings
// evaluator into the three-call surface of spec.md §6: Parse builds an
// immutable resolved Sudoers (flattening includes through a caller-supplied
// reader), Evaluate produces a Judgement plus the effective settings for one
// request, and BuildEnvironment delegates to the environment filter.
//
// Nothing here performs I/O: the include reader and directory lister are
// collaborators the caller injects, and a policy with include directives
// parsed without them fails with an Unsupported diagnostic.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wharflab/sudocore/internal/ast"
	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/semantic"
	"github.com/wharflab/sudocore/internal/settings"
	"github.com/wharflab/sudocore/internal/sudoers"
)

// maxIncludeDepth bounds include nesting, matching sudo's own recursion cap.
const maxIncludeDepth = 128

// Sudoers is the resolved policy: alias tables, permission lines, and
// Defaults directives, immutable once Parse returns it (spec.md §5: safe
// for concurrent evaluation without locking).
type Sudoers struct {
	Tables *semantic.Tables
}

// FileReader resolves one @include path to its contents.
type FileReader func(path string) (string, error)

// DirLister resolves one @includedir path to the file paths inside it.
// Ordering does not matter; Parse sorts and filters them itself.
type DirLister func(path string) ([]string, error)

type options struct {
	readFile FileReader
	listDir  DirLister
}

// ParseOption configures Parse's include collaborators.
type ParseOption func(*options)

// WithIncludeReader supplies the file reader used to resolve @include (and
// #include) directives.
func WithIncludeReader(read FileReader) ParseOption {
	return func(o *options) { o.readFile = read }
}

// WithIncludeDirLister supplies the directory lister used to resolve
// @includedir (and #includedir) directives. Files whose base name contains
// a '.' or ends in '~' are skipped, matching classic sudo's editor-backup
// filter.
func WithIncludeDirLister(list DirLister) ParseOption {
	return func(o *options) { o.listDir = list }
}

// Parse parses and resolves text into an immutable Sudoers. It returns
// (nil, err) when any lex, parse, or semantic diagnostic was recorded
// (spec.md §7: a ParseError aggregate and no Sudoers); the aggregate still
// carries every diagnostic from the whole file, since a bad line never
// aborts the scan of its neighbors.
func Parse(text string, opts ...ParseOption) (*Sudoers, *diagnostics.ParseError) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	fl := &flattener{opts: o, active: map[string]bool{}}
	items := fl.flatten(text, 0)
	diags := fl.diags

	tables, semDiags := semantic.Analyze(items)
	diags = mergeDiags(diags, semDiags)
	// Defaults type mismatches are Semantic diagnostics too. Each directive,
	// scoped ones included, is folded on its own as if it were global.
	for _, d := range tables.Defaults {
		global := *d
		global.Scope = ast.ScopeAll
		_, foldDiags := settings.Fold([]*ast.Defaults{&global}, settings.Scope{})
		diags = mergeDiags(diags, foldDiags)
	}
	if diags != nil {
		return nil, diags
	}
	return &Sudoers{Tables: tables}, nil
}

// Lint parses text the way Parse does but always returns the collected
// diagnostics without building a Sudoers, for callers that only want the
// findings (the `sudocore lint` subcommand).
func Lint(text string, opts ...ParseOption) *diagnostics.ParseError {
	_, diags := Parse(text, opts...)
	return diags
}

// Evaluate runs the authorization evaluator for req and folds the Defaults
// directives in scope for it (spec.md §6: "evaluate(sudoers, request) ->
// (Judgement, EffectiveSettings)"). Settings type-mismatch diagnostics
// surfaced during folding are dropped here: they were already reported at
// Parse time, and evaluation itself never fails (spec.md §7).
func Evaluate(s *Sudoers, req authz.Request) (authz.Judgement, settings.Effective) {
	j := authz.Evaluate(s.Tables, req)
	eff, _ := settings.Fold(s.Tables.Defaults, settings.Scope{
		Host:      req.InvokerHost,
		User:      req.InvokerUser.Name,
		RunAsUser: req.TargetUser.Name,
	})
	return j, eff
}

// BuildEnvironment is the third call of the spec.md §6 surface, delegating
// to the environment filter.
func BuildEnvironment(source []envfilter.EnvVar, ctx envfilter.Context, eff settings.Effective) []envfilter.EnvVar {
	return envfilter.Build(source, ctx, eff)
}

// flattener walks the include graph depth-first, guarding against cycles
// and runaway nesting, and accumulates the flattened item stream plus every
// diagnostic from every visited file.
type flattener struct {
	opts   *options
	active map[string]bool
	diags  *diagnostics.ParseError
}

func (fl *flattener) flatten(text string, depth int) []ast.Sudo {
	items, diags := sudoers.Parse(text)
	fl.diags = mergeDiags(fl.diags, diags)

	var out []ast.Sudo
	for _, item := range items {
		switch item.Kind {
		case ast.SudoInclude:
			out = append(out, fl.includeFile(item, depth)...)
		case ast.SudoIncludeDir:
			out = append(out, fl.includeDir(item, depth)...)
		default:
			out = append(out, item)
		}
	}
	return out
}

func (fl *flattener) includeFile(item ast.Sudo, depth int) []ast.Sudo {
	path := item.IncludePath
	if fl.opts.readFile == nil {
		fl.errorf(item, diagnostics.Unsupported, "@include %q cannot be resolved: no include reader was supplied", path)
		return nil
	}
	if depth >= maxIncludeDepth {
		fl.errorf(item, diagnostics.Semantic, "@include %q exceeds the maximum include depth", path)
		return nil
	}
	if fl.active[path] {
		fl.errorf(item, diagnostics.Semantic, "@include cycle through %q", path)
		return nil
	}

	text, err := fl.opts.readFile(path)
	if err != nil {
		fl.errorf(item, diagnostics.Semantic, "@include %q: %v", path, err)
		return nil
	}

	fl.active[path] = true
	items := fl.flatten(text, depth+1)
	delete(fl.active, path)
	return items
}

func (fl *flattener) includeDir(item ast.Sudo, depth int) []ast.Sudo {
	dir := item.IncludePath
	if fl.opts.listDir == nil || fl.opts.readFile == nil {
		fl.errorf(item, diagnostics.Unsupported, "@includedir %q cannot be resolved: no include collaborators were supplied", dir)
		return nil
	}

	paths, err := fl.opts.listDir(dir)
	if err != nil {
		fl.errorf(item, diagnostics.Semantic, "@includedir %q: %v", dir, err)
		return nil
	}
	sort.Strings(paths)

	var out []ast.Sudo
	for _, path := range paths {
		if skipIncludeDirEntry(path) {
			continue
		}
		sub := item
		sub.Kind = ast.SudoInclude
		sub.IncludePath = path
		out = append(out, fl.includeFile(sub, depth)...)
	}
	return out
}

// skipIncludeDirEntry applies sudo's includedir filename filter: entries
// containing a '.' or ending in '~' are editor backups or package leftovers
// and are ignored.
func skipIncludeDirEntry(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	return base == "" || strings.ContainsRune(base, '.') || strings.HasSuffix(base, "~")
}

func (fl *flattener) errorf(item ast.Sudo, kind diagnostics.Kind, format string, args ...any) {
	fl.diags = diagnostics.Append(fl.diags, diagnostics.Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Pos:     item.Pos,
		Code:    "include",
	})
}

func mergeDiags(a, b *diagnostics.ParseError) *diagnostics.ParseError {
	if b == nil {
		return a
	}
	for _, d := range b.Diagnostics {
		a = diagnostics.Append(a, d)
	}
	return a
}
