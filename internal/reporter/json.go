package reporter

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/settings"
)

// JSONDiagnostic is the wire shape of one diagnostic.
type JSONDiagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code,omitempty"`
}

// JSONDiagnosticsOutput is the top-level structure for diagnostic output.
type JSONDiagnosticsOutput struct {
	File        string           `json:"file"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
	Total       int              `json:"total"`
}

// JSONJudgement is the wire shape of one evaluation verdict.
type JSONJudgement struct {
	Allowed        bool         `json:"allowed"`
	PasswdRequired bool         `json:"passwd_required,omitempty"`
	NoExec         bool         `json:"noexec,omitempty"`
	TimeoutSeconds *int         `json:"timeout_seconds,omitempty"`
	Settings       JSONSettings `json:"settings"`
}

// JSONSettings is the wire shape of the effective settings.
type JSONSettings struct {
	Flags   map[string]bool     `json:"flags,omitempty"`
	Strings map[string]string   `json:"strings,omitempty"`
	Lists   map[string][]string `json:"lists,omitempty"`
}

// JSONReporter formats results as indented JSON.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a JSON reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Diagnostics implements Reporter.
func (r *JSONReporter) Diagnostics(file string, diags []diagnostics.Diagnostic) error {
	out := JSONDiagnosticsOutput{
		File:        file,
		Diagnostics: make([]JSONDiagnostic, 0, len(diags)),
		Total:       len(diags),
	}
	for _, d := range SortDiagnostics(diags) {
		out.Diagnostics = append(out.Diagnostics, JSONDiagnostic{
			Kind:    string(d.Kind),
			Message: d.Message,
			Line:    d.Pos.Line,
			Column:  d.Pos.Column,
			Code:    d.Code,
		})
	}
	return r.encode(out)
}

// Judgement implements Reporter.
func (r *JSONReporter) Judgement(j authz.Judgement, eff settings.Effective) error {
	out := JSONJudgement{
		Allowed:  j.Allowed,
		Settings: settingsToJSON(eff),
	}
	if j.Allowed {
		out.PasswdRequired = j.Flags.Passwd
		out.NoExec = j.Flags.NoExec
		out.TimeoutSeconds = j.Flags.Timeout
	}
	return r.encode(out)
}

// Environment implements Reporter.
func (r *JSONReporter) Environment(env []envfilter.EnvVar) error {
	out := make(map[string]string, len(env))
	for _, v := range env {
		out[v.Name] = v.Value
	}
	return r.encode(out)
}

func settingsToJSON(eff settings.Effective) JSONSettings {
	out := JSONSettings{
		Flags:   eff.Flags,
		Strings: eff.Strings,
	}
	if len(eff.Lists) > 0 {
		out.Lists = make(map[string][]string, len(eff.Lists))
		for name := range eff.Lists {
			values := eff.ListValues(name)
			// ListValues ranges over a set; sort for stable output.
			sort.Strings(values)
			out.Lists[name] = values
		}
	}
	return out
}
