package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/trovecart/shipping/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipping",
	Short:   "Trovecart Shipping Orchestrator - Shiprocket carrier REST service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Local development convenience; ignored when no .env file exists.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	deps, err := initComponents(cfg, db, logger, tracer)
	if err != nil {
		return err
	}

	logger.Info("Starting Trovecart Shipping Orchestrator",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("carrier_mock", cfg.ShiprocketUseMock),
	)

	srv := server.New(server.Config{Port: cfg.Port}, deps, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
