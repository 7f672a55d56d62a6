package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/stupside/storyfetch/internal/app"
	"github.com/stupside/storyfetch/internal/backend"
	"github.com/stupside/storyfetch/internal/version"
)

// Root returns the root CLI command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "storyfetch",
		Usage:   "Download Instagram stories through mirror sites",
		Version: version.Version,
		Writer:  os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging and step snapshots",
			},
		},
		Commands: []*cli.Command{
			storiesCommand(),
			parseCommand(),
			backendsCommand(),
			{
				Name:  "info",
				Usage: "Print build information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					slog.Info("build",
						"version", version.Version,
						"commit", version.Commit,
						"build_time", version.BuildTime,
					)
					return nil
				},
			},
		},
		Metadata: map[string]any{},
	}
}

// loadConfig is the Before hook of commands that need the configuration. It
// stores the config, the backend registry and the log file in the root metadata.
func loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	root := cmd.Root()

	cfg, err := app.Load(root.String("config"))
	if err != nil {
		return ctx, err
	}
	root.Metadata["config"] = cfg
	root.Metadata["backends"] = backend.NewRegistryFromConfig(cfg.Backends)
	root.Metadata["log"] = app.SetupLogging(cfg.Logging, root.Bool("debug"))
	return ctx, nil
}

// closeLog is the After hook paired with loadConfig.
func closeLog(ctx context.Context, cmd *cli.Command) error {
	if c, ok := cmd.Root().Metadata["log"].(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// registryFrom extracts the backend registry built by the root command.
func registryFrom(cmd *cli.Command) (*backend.Registry, error) {
	r, ok := cmd.Root().Metadata["backends"].(*backend.Registry)
	if !ok {
		return nil, fmt.Errorf("backend registry not found in command metadata")
	}
	return r, nil
}
