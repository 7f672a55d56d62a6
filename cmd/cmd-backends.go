package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// backendsCommand returns the "backends" CLI subcommand.
func backendsCommand() *cli.Command {
	return &cli.Command{
		Name:   "backends",
		Usage:  "List the configured mirror backends",
		Before: loadConfig,
		After:  closeLog,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			registry, err := registryFrom(cmd)
			if err != nil {
				return err
			}

			for _, name := range registry.List() {
				b, err := registry.Get(name)
				if err != nil {
					return err
				}
				slog.InfoContext(ctx, "backend", "name", b.Name(), "kind", string(b.Kind()), "mirrors", b.Mirrors())
			}
			return nil
		},
	}
}
