package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Shiprocket
	ShiprocketEmail    string `envconfig:"SHIPROCKET_EMAIL"`
	ShiprocketPassword string `envconfig:"SHIPROCKET_PASSWORD"`
	ShiprocketBaseURL  string `envconfig:"SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in/v1/external"`
	ShiprocketUseMock  bool   `envconfig:"SHIPROCKET_USE_MOCK" default:"false"`

	// Storage
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN" default:"file:shipping.db"`

	// Serviceability
	AdminSellerID             string `envconfig:"ADMIN_SELLER_ID"`
	ServiceabilityConcurrency int    `envconfig:"SERVICEABILITY_CONCURRENCY" default:"4"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"trovecart-shipping"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if !cfg.ShiprocketUseMock && (cfg.ShiprocketEmail == "" || cfg.ShiprocketPassword == "") {
		return nil, fmt.Errorf("SHIPROCKET_EMAIL and SHIPROCKET_PASSWORD are required unless SHIPROCKET_USE_MOCK is set")
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("shiprocket.mock", c.ShiprocketUseMock),
	}
}
