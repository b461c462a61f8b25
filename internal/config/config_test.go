package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := loadWithConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "stdout", cfg.Output.Path)
	assert.Empty(t, cfg.Snapshot)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sudocore.toml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot = \"/srv/db.json\"\n\n[output]\nformat = \"json\"\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/db.json", cfg.Snapshot)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "stdout", cfg.Output.Path, "unset keys keep their defaults")
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sudocore.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"json\"\n"), 0o644))

	t.Setenv("SUDOCORE_OUTPUT_FORMAT", "text")
	t.Setenv("SUDOCORE_SNAPSHOT", "/env/db.json")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "/env/db.json", cfg.Snapshot)
}

func TestDiscoverFindsClosestConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".sudocore.toml"), []byte(""), 0o644))

	got := Discover(filepath.Join(nested, "sudoers"))
	assert.Equal(t, filepath.Join(root, ".sudocore.toml"), got)
}

func TestDiscoverPrefersHiddenName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sudocore.toml"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sudocore.toml"), []byte(""), 0o644))

	got := Discover(filepath.Join(dir, "sudoers"))
	assert.Equal(t, filepath.Join(dir, ".sudocore.toml"), got)
}

func TestEnvKeyTransform(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"SUDOCORE_SNAPSHOT", "snapshot"},
		{"SUDOCORE_OUTPUT_FORMAT", "output.format"},
		{"SUDOCORE_OUTPUT_PATH", "output.path"},
	}
	for _, tt := range cases {
		got, _ := envKeyTransform(tt.input, "v")
		assert.Equal(t, tt.want, got, tt.input)
	}
}
