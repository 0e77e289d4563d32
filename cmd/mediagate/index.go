package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/config"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index storage files into the metadata database",
	Long: `Scan the storage directory and record path, size, etag and content type
of every file in the metadata database. Run it after adding or replacing
files so that served etags stay stable across restarts. Original names set
with "mediagate label" are kept.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requireMetadata(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()

	store, closeStore, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	res, err := mediagate.Populate(ctx, store, store.MetaData())
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	slog.Info("index complete", "created", res.Created, "updated", res.Updated)
	return nil
}

func requireMetadata(cfg *config.Config) error {
	if cfg.Storage.Type != "filesystem" {
		return fmt.Errorf("metadata is only kept for filesystem storage, got %q", cfg.Storage.Type)
	}
	if !cfg.Database.Enabled {
		return errors.New("database is disabled (database.enabled: false)")
	}
	return nil
}
