package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/envy/internal/cache"
	"github.com/wharflab/envy/internal/depot"
	"github.com/wharflab/envy/internal/engine"
	"github.com/wharflab/envy/internal/fetch"
	"github.com/wharflab/envy/internal/pkgcfg"
	"github.com/wharflab/envy/internal/progress"
)

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "resolve and install one or more package configuration files",
		ArgsUsage: "<pkg.toml>...",
		Flags:     commonFlags(),
		Action:    runInstall,
	}
}

func runInstall(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("envy install: no package configuration files given", 2)
	}

	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy install: config: %v", err), 2)
	}
	log := newLogger(cfg)

	var roots []*pkgcfg.Config
	for _, f := range files {
		pc, err := loadPackageConfig(f)
		if err != nil {
			return cli.Exit(fmt.Sprintf("envy install: %s: %v", f, err), 2)
		}
		roots = append(roots, pc)
	}

	depotIdx, err := loadDepotIndex(ctx, cfg.DepotManifests, log)
	if err != nil {
		log.WithError(err).Warn("depot index unavailable, continuing without it")
		depotIdx = nil
	}

	reporter := progress.New(os.Stdout)
	defer reporter.Close()

	g, err := engine.Run(ctx, roots, engine.Options{
		Cache:       cache.New(cfg.CacheRoot),
		Depot:       depotIdx,
		Concurrency: cfg.Concurrency,
		Reporter:    reporter,
		Log:         log,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy install: %v", err), 1)
	}

	for _, root := range roots {
		n := g.Nodes[root.CanonicalKey()]
		if n.PkgPath != "" {
			fmt.Fprintf(os.Stdout, "%s: %s (%s)\n", n.Key, n.PkgPath, n.Type)
		} else {
			fmt.Fprintf(os.Stdout, "%s: %s\n", n.Key, n.Type)
		}
	}
	return nil
}

// loadPackageConfig decodes a TOML package-configuration document into a
// pkgcfg.Config (§3.6's wire representation).
func loadPackageConfig(path string) (*pkgcfg.Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, err
	}
	var raw pkgcfg.RawConfig
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, err
	}
	return pkgcfg.Decode(raw)
}

// loadDepotIndex fetches every configured depot manifest URL/path to a
// scratch file and builds the combined index, in configured order
// (§4.8, "first match wins").
func loadDepotIndex(ctx context.Context, manifestSources []string, log *logrus.Logger) (*depot.Index, error) {
	if len(manifestSources) == 0 {
		return nil, nil
	}

	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, src := range manifestSources {
		dest := tempManifestPath(src)
		if _, err := fetch.Fetch(ctx, fetch.Request{Source: src, Destination: dest}); err != nil {
			return nil, err
		}
		f, err := os.Open(dest)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	readers := make([]io.Reader, len(files))
	for i, f := range files {
		readers[i] = f
	}
	return depot.NewIndex(readers, log)
}

func tempManifestPath(src string) string {
	name := strings.NewReplacer("/", "_", ":", "_").Replace(src)
	return os.TempDir() + "/envy-depot-" + name
}
