package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicekit/mediagate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mediagate",
	Short:   "Token authenticated media gateway with byte range support",
	Long: `mediagate serves stored media files to browsers behind short-lived
signed tokens. Requests take the form /view/<token>/<key> and support
HEAD, GET with a single byte range, and CORS preflight.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: MEDIAGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: mediagate.db, env: MEDIAGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: filesystem, s3 (default: filesystem, env: MEDIAGATE_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: MEDIAGATE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: MEDIAGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
