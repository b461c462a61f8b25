// Package reporter provides output formatters for diagnostics, judgements,
// and built environments. The core packages return structured values;
// turning them into human- or machine-readable output happens here and only
// here (spec.md §7: "formatting into human messages is a collaborator
// concern").
package reporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/settings"
)

// Reporter renders the three result shapes the CLI surfaces.
type Reporter interface {
	Diagnostics(file string, diags []diagnostics.Diagnostic) error
	Judgement(j authz.Judgement, eff settings.Effective) error
	Environment(env []envfilter.EnvVar) error
}

// New returns the reporter for format ("text" or "json") writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "", "text":
		return NewTextReporter(w), nil
	case "json":
		return NewJSONReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// SortDiagnostics returns diags ordered by line, column, then message, so
// every reporter emits them deterministically regardless of the order the
// analysis phases recorded them in.
func SortDiagnostics(diags []diagnostics.Diagnostic) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, len(diags))
	copy(out, diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		if out[i].Pos.Column != out[j].Pos.Column {
			return out[i].Pos.Column < out[j].Pos.Column
		}
		return out[i].Message < out[j].Message
	})
	return out
}
