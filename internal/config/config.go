// Package config provides configuration loading and discovery for the
// sudocore CLI shell.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SUDOCORE_* prefix)
//  3. Config file (closest .sudocore.toml or sudocore.toml)
//  4. Built-in defaults
//
// Config file discovery cascades: starting from the policy file's
// directory, walk up the filesystem until a config file is found. The
// closest config wins (no merging). The core packages never read this
// configuration; it only steers the shell around them.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".sudocore.toml", "sudocore.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "SUDOCORE_"

// Config is the complete shell configuration.
type Config struct {
	// Snapshot is the path of the user/group database snapshot JSON file
	// used to resolve request identities.
	Snapshot string `koanf:"snapshot"`

	// Output configures output format and destination.
	Output OutputConfig `koanf:"output"`

	// ConfigFile is the path of the config file that was loaded (if any).
	// Metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format is "text" or "json". Default: "text".
	Format string `koanf:"format"`

	// Path is where to write output: "stdout", "stderr", or a file path.
	// Default: "stdout".
	Path string `koanf:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Snapshot: "",
		Output: OutputConfig{
			Format: "text",
			Path:   "stdout",
		},
	}
}

// Load loads configuration for a target policy file path. It discovers the
// closest config file, loads it, and applies environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath))
}

// LoadFromFile loads configuration from a specific config file path,
// without discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// SUDOCORE_OUTPUT_FORMAT -> output.format
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	return cfg, nil
}

// envKeyTransform converts environment variable names to config keys:
// SUDOCORE_SNAPSHOT -> snapshot, SUDOCORE_OUTPUT_FORMAT -> output.format.
func envKeyTransform(k, v string) (string, any) {
	k = strings.TrimPrefix(k, EnvPrefix)
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", ".")
	return k, v
}

// Discover finds the closest config file for a target file path, walking up
// the directory tree. Returns "" if none is found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(absPath)

	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
