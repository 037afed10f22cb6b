package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sidetask/internal/api"
	"sidetask/internal/config"
	"sidetask/internal/service"
	"sidetask/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task backend and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.ListenAddr = addr
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))

			store, err := storage.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			ctx := context.Background()

			// Legacy migration runs exactly once, before the first list
			// read.
			legacy := storage.NewLegacySource(cfg.LegacyPath)
			coordinator := service.NewMigrationCoordinator(legacy, store, logger)
			if _, err := coordinator.Run(ctx); err != nil {
				return fmt.Errorf("legacy migration: %w", err)
			}

			controller := service.NewController(store, logger, service.ControllerOptions{
				GraceWindow: cfg.GraceWindow,
				SettleDelay: cfg.SettleDelay,
			})
			defer controller.Close()

			if err := controller.Refresh(ctx, ""); err != nil {
				return fmt.Errorf("initial refresh: %w", err)
			}

			server := api.NewServer(controller, store, logger)
			return server.Run(cfg.ListenAddr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")

	return cmd
}
