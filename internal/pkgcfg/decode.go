package pkgcfg

import "github.com/wharflab/envy/internal/envyerr"

// RawConfig is the loosely-typed shape a decoded manifest document (or a
// depot/test fixture) presents before validation — the concrete stand-in
// for "the package configuration [the manifest loader] hands the engine"
// (§1 Out-of-scope parenthetical; §3.6). Field names mirror the spec's
// prose exactly so a decoder (koanf, YAML, JSON) can bind to them
// structurally.
type RawConfig struct {
	Identity string         `koanf:"identity"`
	Options  map[string]any `koanf:"options"`
	Source   RawSource      `koanf:"source"`
	NeededBy string         `koanf:"needed_by"`
	Product  string         `koanf:"product"`
}

// RawSource mirrors Source but with plain strings, as a decoder would
// populate it from a table.
type RawSource struct {
	URL          string   `koanf:"url"`
	SHA256       string   `koanf:"sha256"`
	LocalPath    string   `koanf:"local_path"`
	ExcludeGlobs []string `koanf:"exclude"`
	GitURL       string   `koanf:"git_url"`
	GitRef       string   `koanf:"git_ref"`
	FetchFn      string   `koanf:"fetch"`
	DependsOn    []string `koanf:"dependencies"`
}

// Decode validates raw per the §4.6 parsing rules and produces a Config.
// dependsOn resolution (turning SourceDeps identities into *Config
// pointers) is the caller's job — it requires the full configuration pool,
// which this package does not own.
func Decode(raw RawConfig) (*Config, error) {
	id, err := ParseIdentity(raw.Identity)
	if err != nil {
		return nil, err
	}

	kindCount := 0
	if raw.Source.URL != "" {
		kindCount++
	}
	if raw.Source.LocalPath != "" {
		kindCount++
	}
	if raw.Source.GitURL != "" {
		kindCount++
	}
	if raw.Source.FetchFn != "" {
		kindCount++
	}
	if kindCount > 1 {
		return nil, &envyerr.ConfigError{Field: "source", Msg: "ambiguous source shape: more than one of url/local_path/git_url/fetch set"}
	}

	src := Source{SHA256: raw.Source.SHA256}
	switch {
	case raw.Source.FetchFn != "":
		if len(raw.Source.DependsOn) == 0 {
			return nil, &envyerr.ConfigError{Field: "source.dependencies", Msg: "a fetch source must declare dependencies"}
		}
		src.Kind = SourceFetch
		src.FetchFnToken = raw.Source.FetchFn
	case raw.Source.GitURL != "":
		src.Kind = SourceGit
		src.GitURL = raw.Source.GitURL
		src.GitRef = raw.Source.GitRef
	case raw.Source.LocalPath != "":
		src.Kind = SourceLocal
		src.LocalPath = raw.Source.LocalPath
		src.ExcludeGlobs = raw.Source.ExcludeGlobs
	case raw.Source.URL != "":
		src.Kind = SourceRemote
		src.URL = raw.Source.URL
	default:
		return nil, &envyerr.ConfigError{Field: "source", Msg: "source must be one of url/local_path/git_url/fetch"}
	}
	if len(raw.Source.DependsOn) > 0 && src.Kind != SourceFetch {
		return nil, &envyerr.ConfigError{Field: "source.dependencies", Msg: "dependencies requires a fetch source"}
	}

	cfg := &Config{
		Identity: id,
		Options:  raw.Options,
		Source:   src,
		NeededBy: Phase(raw.NeededBy),
		Product:  raw.Product,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
