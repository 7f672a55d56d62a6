package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/storyfetch/internal/viewer"
)

// parseCommand returns the "parse" CLI subcommand.
func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Print the story items found in a saved page snapshot",
		ArgsUsage: "<snapshot.html>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("snapshot path is required")
			}

			items, err := viewer.ParseFile(path)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				slog.InfoContext(ctx, "no stories found", "path", path)
				return nil
			}

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
}
