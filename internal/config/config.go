// Package config provides layered configuration loading for envy.
//
// Configuration is loaded from multiple sources with the following
// priority (highest to lowest):
//  1. CLI flags (applied by LoadWithCLIOverrides via CLIOverrides)
//  2. Environment variables (ENVY_* prefix)
//  3. Config file (closest .envy.toml or envy.toml, manifest metadata)
//  4. Built-in defaults (including the per-OS cache root, §4.1/§6.4)
//
// Config file discovery walks up the filesystem from the target directory,
// the same cascading pattern the teacher used for its own lint config.
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

	"github.com/wharflab/envy/internal/platform"
)

// ConfigFileNames defines the config file names to search for, in
// priority order.
var ConfigFileNames = []string{".envy.toml", "envy.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "ENVY_"

// Config is the engine's resolved ambient configuration (§6.3, §6.4): the
// cache root, concurrency bound, depot manifest sources, and the
// verbosity/logging toggle the CLI surface hands the engine.
type Config struct {
	// CacheRoot is the resolved cache directory (§4.1 DefaultCacheRoot,
	// overridable here). Never empty after Load.
	CacheRoot string `koanf:"cache-root"`

	// Concurrency bounds the graph executor's goroutine fan-out (§5).
	// Zero means "use the package default".
	Concurrency int `koanf:"concurrency"`

	// DepotManifests lists depot manifest URLs/paths to load, in the
	// order they should be consulted (§4.8).
	DepotManifests []string `koanf:"depot-manifests"`

	// LogLevel gates structured-logging verbosity: "debug", "info",
	// "warn", "error".
	LogLevel string `koanf:"log-level"`

	// JSONLogs switches the logger to structured JSON output instead of
	// the human-readable text formatter (§ ambient logging stack).
	JSONLogs bool `koanf:"json-logs"`

	// ConfigFile is the path to the config file that was loaded, if any.
	// Metadata, not itself loaded from config.
	ConfigFile string `koanf:"-"`
}

// Default returns the built-in defaults, including the platform-specific
// cache root (§4.1).
func Default() (*Config, error) {
	root, err := platform.DefaultCacheRoot()
	if err != nil {
		return nil, err
	}
	return &Config{
		CacheRoot:      root,
		Concurrency:    0,
		DepotManifests: nil,
		LogLevel:       "info",
		JSONLogs:       false,
	}, nil
}

// Load discovers the closest config file starting from targetDir, loads
// it, and layers environment variable overrides on top.
func Load(targetDir string) (*Config, error) {
	return loadWithConfigPath(Discover(targetDir))
}

// LoadFromFile loads configuration from a specific config file path,
// skipping discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	def, err := Default()
	if err != nil {
		return nil, err
	}
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

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
	if cfg.CacheRoot == "" {
		root, err := platform.DefaultCacheRoot()
		if err != nil {
			return nil, err
		}
		cfg.CacheRoot = root
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// knownHyphenatedKeys maps dot-separated env-derived patterns to their
// hyphenated TOML-key equivalents.
var knownHyphenatedKeys = map[string]string{
	"cache.root":      "cache-root",
	"depot.manifests": "depot-manifests",
	"log.level":       "log-level",
	"json.logs":       "json-logs",
}

// envKeyTransform converts environment variable names to config keys.
// ENVY_CACHE_ROOT -> cache-root
// ENVY_LOG_LEVEL -> log-level
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}
	return s
}

// Discover finds the closest config file walking up from targetDir.
func Discover(targetDir string) string {
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return ""
	}

	dir := absPath
	if info, statErr := os.Stat(absPath); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
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
