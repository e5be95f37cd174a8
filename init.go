package main

import (
	"context"
	"fmt"

	"github.com/trovecart/shipping/internal/config"
	"github.com/trovecart/shipping/internal/locations"
	"github.com/trovecart/shipping/internal/server"
	"github.com/trovecart/shipping/internal/serviceability"
	"github.com/trovecart/shipping/internal/shipment"
	"github.com/trovecart/shipping/internal/telemetry"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := locations.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func initAPIClient(cfg *config.Config) (shiprocket.APIClient, *shiprocket.Session) {
	if cfg.ShiprocketUseMock {
		api := shiprocket.NewMockAPIClient()
		return api, shiprocket.NewSession(api.Login)
	}

	api := shiprocket.NewHTTPAPIClient(shiprocket.HTTPAPIClientConfig{
		BaseURL:  cfg.ShiprocketBaseURL,
		Email:    cfg.ShiprocketEmail,
		Password: cfg.ShiprocketPassword,
	})
	return api, api.Session()
}

func initComponents(cfg *config.Config, db *gorm.DB, logger *otelzap.Logger, tracer trace.Tracer) (server.Deps, error) {
	api, session := initAPIClient(cfg)
	metrics := telemetry.NewMetrics()

	registry := locations.NewRegistry(db, api, logger)
	aggregator := serviceability.New(serviceability.Config{
		AdminSellerID: cfg.AdminSellerID,
		Concurrency:   cfg.ServiceabilityConcurrency,
	}, api, registry, logger, tracer, metrics)
	driver := shipment.NewDriver(api, logger, tracer, metrics)

	return server.Deps{
		Session:    session,
		API:        api,
		Aggregator: aggregator,
		Driver:     driver,
		Registry:   registry,
		Metrics:    metrics,
	}, nil
}
