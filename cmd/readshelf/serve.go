package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/server"
	"github.com/emilythestrangee/readshelf/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(envFile *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, db, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !skipMigrate {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
			}

			var store *storage.Storage
			if cfg.Storage.Enabled() {
				store, err = storage.New(ctx, cfg.Storage, log)
				if err != nil {
					return err
				}
				if err := store.EnsureBucket(ctx); err != nil {
					return err
				}
			} else {
				log.Warn("object storage not configured, uploads disabled")
			}

			srv := server.New(cfg, db, store, log)
			defer srv.Close()
			httpServer := srv.HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				log.Info("server starting", zap.String("addr", httpServer.Addr), zap.String("env", cfg.App.Environment))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down server gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
	return cmd
}
