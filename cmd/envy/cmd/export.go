package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/envy/internal/archive"
	"github.com/wharflab/envy/internal/cache"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write a cached package entry's pkg/ tree as a tar+zstd archive",
		ArgsUsage: "<canonical-key>",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "platform", Usage: "target platform (default: host)"},
			&cli.StringFlag{Name: "arch", Usage: "target architecture (default: host)"},
			&cli.StringFlag{Name: "hash-prefix", Usage: "blake3 hash prefix (default: derived from the key)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output path (default: stdout)"},
		),
		Action: runExport,
	}
}

func runExport(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return cli.Exit("envy export: expected exactly one canonical key", 2)
	}
	key := args[0]

	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy export: config: %v", err), 2)
	}

	platformName := cmd.String("platform")
	if platformName == "" {
		platformName = hostPlatform()
	}
	arch := cmd.String("arch")
	if arch == "" {
		arch = hostArch()
	}
	hashPrefix := cmd.String("hash-prefix")
	if hashPrefix == "" {
		hashPrefix = pkgHashPrefix(key)
	}

	c := cache.New(cfg.CacheRoot)
	entryDir := c.EntryDir(key, platformName, arch, hashPrefix)
	pkgDir := filepath.Join(entryDir, "pkg")

	out := os.Stdout
	outputPath := cmd.String("output")
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("envy export: %v", err), 1)
		}
		defer f.Close()
		out = f
	}

	if err := archive.CreateTarZst(out, pkgDir, key, nil); err != nil {
		return cli.Exit(fmt.Sprintf("envy export: %v", err), 1)
	}
	return nil
}
