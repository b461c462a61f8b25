package reporter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/settings"
	"github.com/wharflab/sudocore/internal/sourcemap"
)

func TestJSONDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	diags := []diagnostics.Diagnostic{
		{Kind: diagnostics.Parse, Message: "expected '='", Pos: sourcemap.Position{Line: 3, Column: 7}, Code: "syntax"},
	}
	require.NoError(t, NewJSONReporter(&buf).Diagnostics("sudoers", diags))

	var out JSONDiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "sudoers", out.File)
	assert.Equal(t, 1, out.Total)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "parse", out.Diagnostics[0].Kind)
	assert.Equal(t, 3, out.Diagnostics[0].Line)
	assert.Equal(t, 7, out.Diagnostics[0].Column)
	assert.Equal(t, "syntax", out.Diagnostics[0].Code)
}

func TestJSONJudgement(t *testing.T) {
	var buf bytes.Buffer
	eff := settings.Effective{
		Flags:   map[string]bool{"requiretty": true},
		Strings: map[string]string{"secure_path": "/usr/bin"},
		Lists:   map[string]map[string]struct{}{"env_keep": {"HOME": {}, "MAIL": {}}},
	}
	j := authz.Judgement{Allowed: true, Flags: authz.Flags{Passwd: true}}
	require.NoError(t, NewJSONReporter(&buf).Judgement(j, eff))

	var out JSONJudgement
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.True(t, out.Allowed)
	assert.True(t, out.PasswdRequired)
	assert.Equal(t, []string{"HOME", "MAIL"}, out.Settings.Lists["env_keep"], "list output is sorted")
	assert.Equal(t, "/usr/bin", out.Settings.Strings["secure_path"])
}

func TestJSONJudgementForbiddenOmitsFlags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf).Judgement(authz.Forbidden, settings.Effective{}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, false, raw["allowed"])
	assert.NotContains(t, raw, "passwd_required")
	assert.NotContains(t, raw, "timeout_seconds")
}

func TestJSONEnvironment(t *testing.T) {
	var buf bytes.Buffer
	env := []envfilter.EnvVar{{Name: "HOME", Value: "/root"}}
	require.NoError(t, NewJSONReporter(&buf).Environment(env))

	var out map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "/root", out["HOME"])
}
