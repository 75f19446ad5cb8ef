package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultUsesPlatformCacheRoot(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.CacheRoot)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestDiscoverFindsClosestConfigFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "envy.toml"), []byte("cache-root = \"/x\"\n"), 0o644))

	got := Discover(sub)
	require.Equal(t, filepath.Join(root, "a", "envy.toml"), got)
}

func TestDiscoverReturnsEmptyWhenNoneFound(t *testing.T) {
	require.Empty(t, Discover(t.TempDir()))
}

func TestLoadFromFileAppliesTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache-root = "/srv/envy-cache"
concurrency = 8
log-level = "debug"
depot-manifests = ["https://example.com/depot.txt"]
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/envy-cache", cfg.CacheRoot)
	require.Equal(t, 8, cfg.Concurrency)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"https://example.com/depot.txt"}, cfg.DepotManifests)
	require.Equal(t, path, cfg.ConfigFile)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`cache-root = "/from/file"`+"\n"), 0o644))

	t.Setenv("ENVY_CACHE_ROOT", "/from/env")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.CacheRoot)
}

func TestCLIOverrideWinsOverEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`cache-root = "/from/file"`+"\n"), 0o644))
	t.Setenv("ENVY_CACHE_ROOT", "/from/env")

	cliRoot := "/from/cli"
	cfg, err := LoadWithCLIOverrides(dir, CLIOverrides{CacheRoot: &cliRoot})
	require.NoError(t, err)
	require.Equal(t, "/from/cli", cfg.CacheRoot)
}
