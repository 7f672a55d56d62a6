package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/storyfetch/internal/app"
	"github.com/stupside/storyfetch/internal/stories"
)

// storiesCommand returns the "stories" CLI subcommand.
func storiesCommand() *cli.Command {
	return &cli.Command{
		Name:      "stories",
		Usage:     "Download the current stories of one or more users",
		ArgsUsage: "<username>...",
		Before:    loadConfig,
		After:     closeLog,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Backend to use (default: first configured)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: download.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the resolved media URLs instead of downloading",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			usernames := cmd.Args().Slice()
			if len(usernames) == 0 {
				return fmt.Errorf("at least one username is required")
			}

			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			registry, err := registryFrom(cmd)
			if err != nil {
				return err
			}

			b, err := registry.Get(cmd.String("backend"))
			if err != nil {
				return err
			}

			opts := stories.Options{
				OutputDir: cfg.Download.OutputDir,
				DryRun:    cmd.Bool("dry-run"),
			}
			if out := cmd.String("output"); out != "" {
				opts.OutputDir = out
			}

			slog.InfoContext(ctx, "fetching stories", "backend", b.Name(), "users", len(usernames), "dry_run", opts.DryRun)

			outcomes, err := stories.NewService(cfg, cmd.Root().Writer).Run(ctx, b, usernames, opts)
			if err != nil {
				return err
			}

			var failed int
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			slog.InfoContext(ctx, "done", "users", len(outcomes), "failed", failed)
			return nil
		},
	}
}
