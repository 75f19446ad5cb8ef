package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/envy/internal/cache"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect and maintain the content-addressed cache",
		Commands: []*cli.Command{
			cacheGCCommand(),
			cacheEnsureCommand(),
		},
	}
}

func cacheGCCommand() *cli.Command {
	return &cli.Command{
		Name:   "gc",
		Usage:  "remove incomplete cache entries left behind by a crashed process",
		Flags:  commonFlags(),
		Action: runCacheGC,
	}
}

func runCacheGC(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy cache gc: config: %v", err), 2)
	}

	c := cache.New(cfg.CacheRoot)
	res, err := c.GC()
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy cache gc: %v", err), 1)
	}

	fmt.Printf("scanned %d entries, removed %d, skipped %d (still locked)\n", res.Scanned, len(res.Removed), len(res.Skipped))
	for _, dir := range res.Removed {
		fmt.Printf("  removed: %s\n", dir)
	}
	return nil
}

func cacheEnsureCommand() *cli.Command {
	return &cli.Command{
		Name:      "ensure",
		Usage:     "ensure a cache entry exists for a canonical key, without installing",
		ArgsUsage: "<canonical-key>",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "platform", Usage: "target platform (default: host)"},
			&cli.StringFlag{Name: "arch", Usage: "target architecture (default: host)"},
			&cli.StringFlag{Name: "hash-prefix", Usage: "blake3 hash prefix (default: derived from the key)"},
		),
		Action: runCacheEnsure,
	}
}

func runCacheEnsure(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return cli.Exit("envy cache ensure: expected exactly one canonical key", 2)
	}
	key := args[0]

	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("envy cache ensure: config: %v", err), 2)
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
		return cli.Exit(fmt.Sprintf("envy cache ensure: %v", err), 1)
	}
	if res.AlreadyCached {
		fmt.Printf("already cached: %s\n", res.PkgPath)
		return nil
	}
	// A fresh entry was created without any phase driving it to
	// completion; release it immediately so it doesn't leak a lock and
	// a half-formed entry directory (this subcommand only probes/creates
	// the cache layout, it does not run the install pipeline).
	if err := res.Lock.Release(); err != nil {
		return cli.Exit(fmt.Sprintf("envy cache ensure: %v", err), 1)
	}
	fmt.Printf("entry created (uninstalled): %s\n", res.PkgPath)
	return nil
}
