package config

import (
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/wharflab/envy/internal/platform"
)

// CLIOverrides carries flags the CLI surface parsed explicitly (§6.3); a
// nil field pointer means "flag not set", distinguishing "explicitly set
// to the zero value" from "inherit from a lower layer".
type CLIOverrides struct {
	CacheRoot   *string
	Concurrency *int
	LogLevel    *string
	JSONLogs    *bool
}

// LoadWithCLIOverrides layers CLI flags on top of the discovered config
// file and environment, implementing the precedence chain the engine
// relies on for its cache root (§6.3/§6.4): CLI flag > env > manifest
// metadata (config file) > platform default.
func LoadWithCLIOverrides(targetDir string, cli CLIOverrides) (*Config, error) {
	configPath := Discover(targetDir)

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
	if err := k.Load(confmap.Provider(cliOverrideMap(cli), ""), nil); err != nil {
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

func cliOverrideMap(cli CLIOverrides) map[string]any {
	out := map[string]any{}
	if cli.CacheRoot != nil {
		out["cache-root"] = *cli.CacheRoot
	}
	if cli.Concurrency != nil {
		out["concurrency"] = *cli.Concurrency
	}
	if cli.LogLevel != nil {
		out["log-level"] = *cli.LogLevel
	}
	if cli.JSONLogs != nil {
		out["json-logs"] = *cli.JSONLogs
	}
	return out
}
