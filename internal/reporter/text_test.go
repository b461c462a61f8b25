package reporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/settings"
	"github.com/wharflab/sudocore/internal/sourcemap"
)

func plainText(buf *bytes.Buffer) *TextReporter {
	return NewTextReporter(buf).WithColor(false)
}

func TestTextDiagnosticsSortedByPosition(t *testing.T) {
	var buf bytes.Buffer
	diags := []diagnostics.Diagnostic{
		{Kind: diagnostics.Semantic, Message: "later", Pos: sourcemap.Position{Line: 9, Column: 1}},
		{Kind: diagnostics.Parse, Message: "earlier", Pos: sourcemap.Position{Line: 2, Column: 5}},
	}
	require.NoError(t, plainText(&buf).Diagnostics("sudoers", diags))

	out := buf.String()
	assert.Contains(t, out, "sudoers:2:5 parse earlier")
	assert.Contains(t, out, "sudoers:9:1 semantic later")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("earlier")), bytes.Index(buf.Bytes(), []byte("later")))
	assert.Contains(t, out, "2 problem(s) found")
}

func TestTextJudgementForbidden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainText(&buf).Judgement(authz.Forbidden, settings.Effective{}))
	assert.Equal(t, "FORBIDDEN\n", buf.String())
}

func TestTextJudgementAllowedWithFlags(t *testing.T) {
	var buf bytes.Buffer
	timeout := 30
	j := authz.Judgement{Allowed: true, Flags: authz.Flags{Passwd: false, NoExec: true, Timeout: &timeout}}
	eff := settings.Effective{Strings: map[string]string{"secure_path": "/usr/bin"}}
	require.NoError(t, plainText(&buf).Judgement(j, eff))

	out := buf.String()
	assert.Contains(t, out, "ALLOWED")
	assert.Contains(t, out, "(no password required)")
	assert.Contains(t, out, "(noexec)")
	assert.Contains(t, out, "(timeout 30s)")
	assert.Contains(t, out, "secure_path: /usr/bin")
}

func TestTextEnvironment(t *testing.T) {
	var buf bytes.Buffer
	env := []envfilter.EnvVar{{Name: "HOME", Value: "/root"}, {Name: "USER", Value: "root"}}
	require.NoError(t, plainText(&buf).Environment(env))
	assert.Equal(t, "HOME=/root\nUSER=root\n", buf.String())
}
