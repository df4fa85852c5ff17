package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/familycart/internal/config"
	"github.com/dukerupert/familycart/internal/database"
	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/logging"
	"github.com/dukerupert/familycart/internal/middleware"
	"github.com/dukerupert/familycart/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	lock, err := database.AcquireLock(cfg.DBPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	imgs, disk, err := newImageStore(cfg.Images)
	if err != nil {
		return err
	}

	srv := server.New(db, imgs, server.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		DiskImages:     disk,
		StaticDir:      cfg.StaticDir,
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupLoop(ctx, srv.RateLimiter())

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /ws connections stay open.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shoplist running", "addr", httpServer.Addr, "db", cfg.DBPath, "images", cfg.Images.Backend, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newImageStore returns the configured backend. The disk store is also
// returned on its own so the server can publish its directory.
func newImageStore(cfg config.ImagesConfig) (images.Store, *images.DiskStore, error) {
	switch cfg.Backend {
	case config.ImageBackendS3:
		s3, err := images.NewS3Store(images.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	default:
		disk, err := images.NewDiskStore(cfg.Dir, cfg.URLPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("disk image store: %w", err)
		}
		return disk, disk, nil
	}
}

func cleanupLoop(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
			slog.Debug("rate limiter cleaned")
		case <-ctx.Done():
			return
		}
	}
}
