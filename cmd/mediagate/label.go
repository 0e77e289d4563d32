package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/config"
	"github.com/invoicekit/mediagate/database"
)

var labelCmd = &cobra.Command{
	Use:   "label <key> [name]",
	Short: "Set the download name of a stored file",
	Long: `Record the name a file was uploaded under. It is sent back as the
Content-Disposition filename when the file is viewed. Omit the name to
clear it.

Examples:
  mediagate label projects/1/8f3a2c.mp4 "Quarterly Review.mp4"
  mediagate label projects/1/8f3a2c.mp4`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLabel,
}

func init() {
	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requireMetadata(cfg); err != nil {
		return err
	}

	key := args[0]
	if !mediagate.IsValidKey(key) {
		return fmt.Errorf("label: invalid key %q", key)
	}

	var name string
	if len(args) == 2 {
		name = args[1]
	}

	ctx := cmd.Context()

	repo, closeDB, err := database.Open(ctx, cfg.Database.Config)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB()

	if err := repo.SetOriginalName(ctx, key, name); err != nil {
		if errors.Is(err, mediagate.ErrNotFound) {
			return fmt.Errorf("label %q: not indexed, run \"mediagate index\" first: %w", key, err)
		}
		return fmt.Errorf("label %q: %w", key, err)
	}

	slog.Info("label set", "key", key, "name", name)
	return nil
}
