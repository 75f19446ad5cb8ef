package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/envy/internal/archive"
	"github.com/wharflab/envy/internal/cache"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "install a cache entry directly from a previously exported archive",
		ArgsUsage: "<canonical-key> <archive-path>",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "platform", Usage: "target platform (default: host)"},
			&cli.StringFlag{Name: "arch", Usage: "target architecture (default: host)"},
			&cli.StringFlag{Name: "hash-prefix", Usage: "blake3 hash prefix (default: derived from the key)"},
		),
		Action: runImport,
	}
}

func runImport(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return cli.Exit("envy import: expected <canonical-key> <archive-path>", 2)
	}
	key, archivePath := args[0], args[1]

	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy import: config: %v", err), 2)
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
	res, err := c.EnsurePkg(key, platformName, arch, hashPrefix)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy import: %v", err), 1)
	}
	if res.AlreadyCached {
		fmt.Printf("already cached: %s\n", res.PkgPath)
		return nil
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy import: %v", err), 1)
	}
	defer f.Close()

	if _, err := archive.Extract(f, res.Lock.InstallDir(), nil); err != nil {
		_ = res.Lock.Release()
		return cli.Exit(fmt.Sprintf("envy import: %v", err), 1)
	}

	res.Lock.MarkInstallComplete()
	res.Lock.MarkPreserveFetch()
	if err := res.Lock.Release(); err != nil {
		return cli.Exit(fmt.Sprintf("envy import: %v", err), 1)
	}
	fmt.Printf("imported: %s\n", res.PkgPath)
	return nil
}
