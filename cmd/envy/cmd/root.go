// Package cmd wires envy's urfave/cli/v3 command tree onto the engine
// packages, mirroring the teacher's own NewApp/Execute split between a
// root command and its subcommands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/envy/internal/config"
	"github.com/wharflab/envy/internal/envylog"
	"github.com/wharflab/envy/internal/version"
)

// Root builds the top-level "envy" command.
func Root() *cli.Command {
	return &cli.Command{
		Name:  "envy",
		Usage: "content-addressed package manager",
		Commands: []*cli.Command{
			installCommand(),
			cacheCommand(),
			exportCommand(),
			importCommand(),
			versionCommand(),
		},
	}
}

// commonFlags are the config-layer overrides every subcommand that talks
// to the engine accepts (§6.3/§6.4). Attached per-subcommand rather than
// on the root, since urfave/cli/v3 resolves IsSet/String/etc. against the
// command a flag was registered on.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "cache-root", Usage: "override the resolved cache directory"},
		&cli.IntFlag{Name: "concurrency", Usage: "bound the graph executor's goroutine fan-out"},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error"},
		&cli.BoolFlag{Name: "json-logs", Usage: "emit structured JSON logs instead of text"},
	}
}

// loadEngineConfig resolves the layered configuration (§6.3/§6.4) from the
// command's flags, honoring CLI > env > manifest metadata > platform
// default precedence.
func loadEngineConfig(cmd *cli.Command) (*config.Config, error) {
	var overrides config.CLIOverrides
	if cmd.IsSet("cache-root") {
		v := cmd.String("cache-root")
		overrides.CacheRoot = &v
	}
	if cmd.IsSet("concurrency") {
		v := cmd.Int("concurrency")
		vi := int(v)
		overrides.Concurrency = &vi
	}
	if cmd.IsSet("log-level") {
		v := cmd.String("log-level")
		overrides.LogLevel = &v
	}
	if cmd.IsSet("json-logs") {
		v := cmd.Bool("json-logs")
		overrides.JSONLogs = &v
	}
	return config.LoadWithCLIOverrides(".", overrides)
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print version information as JSON"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			info := version.GetInfo()
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Printf("envy %s (%s/%s, %s)\n", info.Version, info.Platform.OS, info.Platform.Arch, info.GoVersion)
			if info.GitCommit != "" {
				fmt.Printf("commit: %s\n", info.GitCommit)
			}
			return nil
		},
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return envylog.New(cfg.LogLevel, cfg.JSONLogs)
}
