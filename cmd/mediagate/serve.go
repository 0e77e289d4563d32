package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/config"
	"github.com/invoicekit/mediagate/database"
	"github.com/invoicekit/mediagate/filesystem"
	mediahttp "github.com/invoicekit/mediagate/http"
	"github.com/invoicekit/mediagate/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the mediagate HTTP server.

The server answers HEAD, GET and OPTIONS on /view/<token>/<key>. Tokens are
verified against auth.secret; without a secret every request is rejected.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: 8787, env: MEDIAGATE_SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server, err := newServer(cfg, store)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.Server.ShutdownTimeout))
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server", "addr", server.Addr, "storage", cfg.Storage.Type)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openStore builds the configured object store. The returned cleanup
// function releases its resources and is never nil on success.
func openStore(ctx context.Context, cfg *config.Config) (mediagate.ObjectStore, func(), error) {
	switch cfg.Storage.Type {
	case "filesystem":
		store, cleanup, err := openFileStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, cleanup, nil
	case "s3":
		store, err := s3.New(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 storage: %w", err)
		}
		slog.Info("using s3 storage", "bucket", cfg.Storage.S3.Bucket, "region", cfg.Storage.S3.Region)
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %q", cfg.Storage.Type)
	}
}

func openFileStore(ctx context.Context, cfg *config.Config) (*filesystem.Store, func(), error) {
	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("storage directory does not exist: %s", cfg.Storage.Path)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	if !cfg.Database.Enabled {
		slog.Info("using filesystem storage", "path", cfg.Storage.Path)
		return filesystem.NewFileStorage(root, nil), func() { _ = root.Close() }, nil
	}

	repo, closeDB, err := database.Open(ctx, cfg.Database.Config)
	if err != nil {
		_ = root.Close()
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	slog.Info("using filesystem storage", "path", cfg.Storage.Path, "database", cfg.Database.Type)

	cleanup := func() {
		closeDB()
		_ = root.Close()
	}
	return filesystem.NewFileStorage(root, repo), cleanup, nil
}

func newServer(cfg *config.Config, store mediagate.ObjectStore) (*http.Server, error) {
	verifier := mediagate.NewTokenVerifier(cfg.Auth.Secret)
	if !verifier.Configured() {
		slog.Warn("auth.secret is not set; every media request will be rejected")
	}

	gateway, err := mediagate.NewGateway(verifier, store)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	handler := mediahttp.NewHandler(&mediahttp.HandlerConfig{
		CacheControl: cfg.Server.CacheControl,
		CORS:         cfg.CORS,
	}, gateway)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: seconds(cfg.Server.ReadHeaderTimeout),
		WriteTimeout:      seconds(cfg.Server.WriteTimeout),
		IdleTimeout:       seconds(cfg.Server.IdleTimeout),
	}, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
