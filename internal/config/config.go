package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// DHL credentials and endpoints
	DHLUsername       string   `envconfig:"DHL_USERNAME"`
	DHLPassword       string   `envconfig:"DHL_PASSWORD"`
	DHLAccountNumbers []string `envconfig:"DHL_ACCOUNT_NUMBERS"`
	DHLSOAPBaseURL    string   `envconfig:"DHL_SOAP_BASE_URL" default:"https://wsbexpress.dhl.com:443"`
	DHLRESTBaseURL    string   `envconfig:"DHL_REST_BASE_URL" default:"https://express.api.dhl.com/mydhlapi"`
	DHLEnvironment    string   `envconfig:"DHL_ENVIRONMENT" default:"production"`
	DHLUseMock        bool     `envconfig:"DHL_USE_MOCK" default:"false"`

	// Transport
	Timeout       time.Duration `envconfig:"DHL_TIMEOUT" default:"30s"`
	TLSSkipVerify bool          `envconfig:"DHL_TLS_SKIP_VERIFY" default:"false"`

	// Ship window bounds relative to now. Observed carrier behavior,
	// kept configurable.
	ShipWindowMin time.Duration `envconfig:"DHL_SHIP_WINDOW_MIN" default:"1h"`
	ShipWindowMax time.Duration `envconfig:"DHL_SHIP_WINDOW_MAX" default:"216h"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"dhlbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("dhl.environment", c.DHLEnvironment),
		attribute.Int("dhl.accounts", len(c.DHLAccountNumbers)),
	}
}
