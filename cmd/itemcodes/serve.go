package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dsierp/itemcodes/config"
	"github.com/dsierp/itemcodes/models"
	"github.com/spf13/cobra"
)

func serveCmd(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			db, err := models.OpenPostgres(cfg.PostgresDSN, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			server := &http.Server{
				Addr:              cfg.ServerAddress,
				Handler:           newRouter(cfg, db, log),
				ReadTimeout:       15 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", "address", cfg.ServerAddress,
					"serialize_allocations", cfg.SerializeAllocations)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			log.Info("shutting down server")
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("server forced to shutdown", "error", err)
				return err
			}
			return nil
		},
	}
}
