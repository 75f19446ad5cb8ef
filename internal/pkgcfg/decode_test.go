package pkgcfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRemoteSource(t *testing.T) {
	cfg, err := Decode(RawConfig{
		Identity: "acme.tool@v1",
		Source:   RawSource{URL: "https://example/tool.tar.gz", SHA256: "deadbeef"},
	})
	require.NoError(t, err)
	require.Equal(t, SourceRemote, cfg.Source.Kind)
	require.Equal(t, PhaseInstall, cfg.EffectiveNeededBy())
}

func TestDecodeNeededByOverride(t *testing.T) {
	cfg, err := Decode(RawConfig{
		Identity: "acme.tool@v1",
		Source:   RawSource{URL: "https://example/tool.tar.gz"},
		NeededBy: "fetch",
	})
	require.NoError(t, err)
	require.Equal(t, PhaseFetch, cfg.EffectiveNeededBy())
}

func TestDecodeFetchSourceRequiresDependencies(t *testing.T) {
	_, err := Decode(RawConfig{
		Identity: "acme.tool@v1",
		Source:   RawSource{FetchFn: "custom_fetch"},
	})
	require.Error(t, err)
}

func TestDecodeFetchSourceWithDependencies(t *testing.T) {
	cfg, err := Decode(RawConfig{
		Identity: "acme.tool@v1",
		Source:   RawSource{FetchFn: "custom_fetch", DependsOn: []string{"acme.curl@v1"}},
	})
	require.NoError(t, err)
	require.Equal(t, SourceFetch, cfg.Source.Kind)
}

func TestDecodeAmbiguousSourceShape(t *testing.T) {
	_, err := Decode(RawConfig{
		Identity: "acme.tool@v1",
		Source:   RawSource{URL: "https://example/x", GitURL: "https://example/x.git"},
	})
	require.Error(t, err)
}

func TestDecodeMalformedIdentity(t *testing.T) {
	_, err := Decode(RawConfig{Identity: "not-an-identity"})
	require.Error(t, err)
}

func TestDecodeNoSourceShape(t *testing.T) {
	_, err := Decode(RawConfig{Identity: "acme.tool@v1"})
	require.Error(t, err)
}
