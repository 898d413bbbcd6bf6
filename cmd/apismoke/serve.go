package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hazz-dev/apismoke/internal/checker"
	"github.com/hazz-dev/apismoke/internal/config"
	"github.com/hazz-dev/apismoke/internal/metrics"
	"github.com/hazz-dev/apismoke/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP API that runs the checks on demand",
		RunE:  runServe,
	}
	cmd.Flags().String("address", ":8080", "listen address")
	_ = viper.BindPFlag("address", cmd.Flags().Lookup("address"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded", "services", len(cfg.Services), "endpoints", cfg.EndpointCount())

	m := metrics.New()
	engine := checker.New(&http.Client{}, checker.WithLogger(logger))
	apiServer := server.New(engine, cfg.Services, m, m.Handler(), logger)

	address := viper.GetString("address")
	httpServer := &http.Server{
		Addr:              address,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	ctx := cmd.Context()
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
