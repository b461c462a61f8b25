package reporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/settings"
)

var (
	// Color detection via termenv (respects NO_COLOR, CLICOLOR_FORCE,
	// terminal detection).
	useColors = termenv.EnvColorProfile() != termenv.Ascii

	allowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("40")) // Green

	forbidStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	kindStyles = map[diagnostics.Kind]lipgloss.Style{
		diagnostics.Lex:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")), // Red
		diagnostics.Parse:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")), // Red
		diagnostics.Semantic:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")), // Orange
		diagnostics.Unsupported: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),  // Blue
	}

	fileLocStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")) // Light gray
)

// TextReporter renders results as styled terminal text.
type TextReporter struct {
	writer io.Writer
	color  bool
}

// NewTextReporter creates a text reporter writing to w, auto-detecting
// color support.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{writer: w, color: useColors}
}

// WithColor overrides color auto-detection (used by tests).
func (r *TextReporter) WithColor(on bool) *TextReporter {
	r.color = on
	return r
}

func (r *TextReporter) render(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Diagnostics implements Reporter.
func (r *TextReporter) Diagnostics(file string, diags []diagnostics.Diagnostic) error {
	for _, d := range SortDiagnostics(diags) {
		loc := fmt.Sprintf("%s:%d:%d", file, d.Pos.Line, d.Pos.Column)
		if _, err := fmt.Fprintf(r.writer, "%s %s %s\n",
			r.render(fileLocStyle, loc),
			r.render(kindStyles[d.Kind], string(d.Kind)),
			d.Message,
		); err != nil {
			return err
		}
	}
	if len(diags) > 0 {
		if _, err := fmt.Fprintf(r.writer, "\n%d problem(s) found\n", len(diags)); err != nil {
			return err
		}
	}
	return nil
}

// Judgement implements Reporter.
func (r *TextReporter) Judgement(j authz.Judgement, eff settings.Effective) error {
	if !j.Allowed {
		_, err := fmt.Fprintf(r.writer, "%s\n", r.render(forbidStyle, "FORBIDDEN"))
		return err
	}

	if _, err := fmt.Fprintf(r.writer, "%s", r.render(allowStyle, "ALLOWED")); err != nil {
		return err
	}
	if !j.Flags.Passwd {
		if _, err := io.WriteString(r.writer, " (no password required)"); err != nil {
			return err
		}
	}
	if j.Flags.NoExec {
		if _, err := io.WriteString(r.writer, " (noexec)"); err != nil {
			return err
		}
	}
	if j.Flags.Timeout != nil {
		if _, err := fmt.Fprintf(r.writer, " (timeout %ds)", *j.Flags.Timeout); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(r.writer, "\n"); err != nil {
		return err
	}

	if sp, ok := eff.Strings["secure_path"]; ok {
		if _, err := fmt.Fprintf(r.writer, "secure_path: %s\n", sp); err != nil {
			return err
		}
	}
	return nil
}

// Environment implements Reporter.
func (r *TextReporter) Environment(env []envfilter.EnvVar) error {
	for _, v := range env {
		if _, err := fmt.Fprintf(r.writer, "%s=%s\n", v.Name, v.Value); err != nil {
			return err
		}
	}
	return nil
}
