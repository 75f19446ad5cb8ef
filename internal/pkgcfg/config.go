package pkgcfg

import (
	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/envyhash"
)

// HashPrefixLen is the fixed length of the cache directory's short
// fingerprint (§3.1).
const HashPrefixLen = 16

// HashPrefix returns the first 16 hex characters of BLAKE3(canonicalKey).
func HashPrefix(canonicalKey string) string {
	return envyhash.BLAKE3HexPrefix([]byte(canonicalKey), HashPrefixLen)
}

// Phase names a point in the eight-phase pipeline (§4.7.1). NeededBy
// annotations only ever reference the phases a dependency edge can target.
type Phase string

const (
	PhaseRecipeFetch Phase = "recipe_fetch"
	PhaseCheck       Phase = "check"
	PhaseFetch       Phase = "fetch"
	PhaseStage       Phase = "stage"
	PhaseBuild       Phase = "build"
	PhaseInstall     Phase = "install"
	PhaseDeploy      Phase = "deploy"
	PhaseCompletion  Phase = "completion"
)

// Phases lists the pipeline in execution order.
var Phases = []Phase{
	PhaseRecipeFetch, PhaseCheck, PhaseFetch, PhaseStage, PhaseBuild,
	PhaseInstall, PhaseDeploy, PhaseCompletion,
}

// SourceKind discriminates pkg_cfg's source variants (§3.2).
type SourceKind string

const (
	SourceRemote SourceKind = "remote"       // URL + optional SHA-256
	SourceLocal  SourceKind = "local"        // local filesystem path
	SourceGit    SourceKind = "git"          // git URL + ref
	SourceFetch  SourceKind = "fetch_fn"     // in-script fetch function
	SourceWeak   SourceKind = "weak_ref"     // weak-reference placeholder
)

// Source is the discriminated union described in §3.2. Exactly one of the
// fields matching Kind is meaningful.
type Source struct {
	Kind SourceKind

	// SourceRemote
	URL    string
	SHA256 string // optional; empty means unverified

	// SourceLocal
	LocalPath string
	// ExcludeGlobs are doublestar patterns (matched against paths relative
	// to LocalPath) skipped while staging a local source, so a package
	// author can point envy at a working tree without shipping its VCS
	// metadata or build scratch directories.
	ExcludeGlobs []string

	// SourceGit
	GitURL string
	GitRef string

	// SourceFetch: an in-script fetch function is opaque to this package;
	// it is represented by a caller-supplied token plus its declared
	// source dependencies (the scripting host itself is out of scope,
	// §1). FetchFnToken is whatever identifier the manifest loader used.
	FetchFnToken string
}

// Config is the immutable pkg_cfg record (§3.2).
type Config struct {
	Identity   Identity
	Options    map[string]any
	Source     Source
	NeededBy   Phase // default PhaseInstall when zero-valued
	Parent     *Config
	Weak       *Config // fallback configuration, only valid if Source.Kind == SourceWeak
	SourceDeps []*Config
	Product    string // optional product-script selector name

	// CheckFn is the user-defined check verb (§4.7.1): if set, the check
	// phase runs it instead of only consulting the cache. A true result
	// means the package is already present on the host outside envy's
	// cache, so the entry is marked user-managed and the remaining phases
	// (fetch through deploy) are skipped. The scripting host that would
	// normally supply this from manifest script code is out of scope
	// (§1); CheckFn is the concrete hook callers use in its place, the
	// same way Source.FetchFnToken stands in for an in-script fetch.
	CheckFn func() (bool, error)
}

// EffectiveNeededBy returns NeededBy, defaulting to PhaseInstall.
func (c *Config) EffectiveNeededBy() Phase {
	if c.NeededBy == "" {
		return PhaseInstall
	}
	return c.NeededBy
}

// SerializedOptions renders Options in canonical form.
func (c *Config) SerializedOptions() string {
	return SerializeOptions(c.Options)
}

// CanonicalKey renders "identity" or "identity{...}" per §3.1.
func (c *Config) CanonicalKey() string {
	return CanonicalKey(c.Identity, c.Options)
}

// CanonicalKey computes the canonical key for an identity/options pair
// without requiring a full Config.
func CanonicalKey(id Identity, opts map[string]any) string {
	ser := SerializeOptions(opts)
	if ser == "{}" {
		return id.String()
	}
	return id.String() + ser
}

// Validate checks the invariants in §3.2 and §4.6 that a single Config must
// satisfy in isolation (cross-config invariants like "weak has a fallback
// somewhere in the graph" are checked by the graph resolver, not here).
func (c *Config) Validate() error {
	if c.Source.Kind == SourceWeak && c.Weak == nil {
		// A weak-reference placeholder without a fallback is only legal
		// when used as a reference-only dependency; the graph resolver,
		// not this struct, knows whether a fallback exists elsewhere.
		return nil
	}
	if c.Source.Kind == SourceRemote && c.Source.URL == "" {
		return &envyerr.ConfigError{Field: "source.url", Msg: "remote source requires a URL"}
	}
	if c.Source.Kind == SourceGit && c.Source.GitURL == "" {
		return &envyerr.ConfigError{Field: "source.git_url", Msg: "git source requires a URL"}
	}
	if c.Source.Kind == SourceLocal && c.Source.LocalPath == "" {
		return &envyerr.ConfigError{Field: "source.local_path", Msg: "local source requires a path"}
	}
	if c.Source.Kind == SourceFetch {
		if c.Source.FetchFnToken == "" {
			return &envyerr.ConfigError{Field: "source.fetch", Msg: "fetch-function source requires a token"}
		}
		if len(c.SourceDeps) == 0 {
			return &envyerr.ConfigError{Field: "source_dependencies", Msg: "a fetch-function source must declare dependencies"}
		}
	}
	if len(c.SourceDeps) > 0 && c.Source.Kind != SourceFetch {
		return &envyerr.ConfigError{Field: "source_dependencies", Msg: "source_dependencies requires a fetch-function source"}
	}
	return nil
}
