package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stock-data-service/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied to every field the YAML file leaves unset.
const (
	DefaultName            = "StockDataService"
	DefaultPort            = 8080
	DefaultGRPCHost        = "0.0.0.0"
	DefaultGRPCPort        = 5001
	DefaultShutdownTimeout = 30 * time.Second

	DefaultTokenKey      = "This is gRPC demo sample key"
	DefaultTokenLifetime = 60 * time.Second

	DefaultSampleCount    = 10
	DefaultSampleInterval = 500 * time.Millisecond
	DefaultQueueCapacity  = 64

	DefaultMinPrice int32 = 100
	DefaultMaxPrice int32 = 500

	DefaultHealthPollPeriod   = 15 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second

	AuthenticateMethod = "/stockdetails.AuthService/Authenticate"
)

// Environment variables overriding file values.
const (
	EnvTokenKey = "STOCK_TOKEN_KEY"
	EnvGRPCPort = "STOCK_GRPC_PORT"
	EnvHTTPPort = "STOCK_HTTP_PORT"
	EnvLogLevel = "LOG_LEVEL"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Load .env into the process environment, a missing file is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// 2. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse decodes YAML content, applies environment overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	if err := config.applyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a validated configuration made only of defaults.
func Default() *Config {
	config := &Config{MConfig: &models.MConfig{}}
	config.ApplyDefaults()
	return config
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() error {
	if key := os.Getenv(EnvTokenKey); key != "" {
		c.Auth.TokenKey = key
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logger.Level = level
	}
	if port := os.Getenv(EnvGRPCPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGRPCPort, err)
		}
		c.GRPC_Port = p
	}
	if port := os.Getenv(EnvHTTPPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPPort, err)
		}
		c.Port = p
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.GRPC_Host == "" {
		c.GRPC_Host = DefaultGRPCHost
	}
	if c.GRPC_Port == 0 {
		c.GRPC_Port = DefaultGRPCPort
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Auth
	if c.Auth.TokenKey == "" {
		c.Auth.TokenKey = DefaultTokenKey
	}
	if c.Auth.TokenLifetime == 0 {
		c.Auth.TokenLifetime = DefaultTokenLifetime
	}
	if len(c.Auth.Clients) == 0 {
		c.Auth.Clients = map[string]string{
			"clientId1": "secret1",
			"clientId2": "secret2",
		}
	}
	if len(c.Auth.PublicMethods) == 0 {
		c.Auth.PublicMethods = []string{AuthenticateMethod}
	}

	// Stream
	if c.Stream.SampleCount == 0 {
		c.Stream.SampleCount = DefaultSampleCount
	}
	if c.Stream.SampleInterval == 0 {
		c.Stream.SampleInterval = DefaultSampleInterval
	}
	if c.Stream.QueueCapacity == 0 {
		c.Stream.QueueCapacity = DefaultQueueCapacity
	}

	// Sampler
	if c.Sampler.MinPrice == 0 && c.Sampler.MaxPrice == 0 {
		c.Sampler.MinPrice = DefaultMinPrice
		c.Sampler.MaxPrice = DefaultMaxPrice
	}

	// Health
	if c.Health.ServiceName == "" {
		c.Health.ServiceName = DefaultName
	}
	if c.Health.PollPeriod == 0 {
		c.Health.PollPeriod = DefaultHealthPollPeriod
	}
	if c.Health.CheckTimeout == 0 {
		c.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	// REST bridge uses the first registered client unless told otherwise
	if c.Rest.ClientID == "" {
		c.Rest.ClientID = "clientId1"
		c.Rest.ClientSecret = c.Auth.Clients["clientId1"]
	}

	// NATS
	if c.NATS.Encoding == "" {
		c.NATS.Encoding = "json"
	}
	if c.NATS.ClientID == "" {
		c.NATS.ClientID = c.Name
	}
	if c.NATS.ConnectTimeout == 0 {
		c.NATS.ConnectTimeout = 5 * time.Second
	}
	if c.NATS.ReconnectWait == 0 {
		c.NATS.ReconnectWait = 2 * time.Second
	}
	if c.NATS.FlushTimeout == 0 {
		c.NATS.FlushTimeout = 5 * time.Second
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation of every section.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name cannot be empty")
	}

	// Validate Application Ports (using c.Port directly due to embedding)
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid application port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GRPC_Port <= 1024 || c.GRPC_Port > 65535 {
		return fmt.Errorf("invalid gRPC port number: %d (must be between 1025 and 65535)", c.GRPC_Port)
	}
	if c.Port == c.GRPC_Port {
		return fmt.Errorf("application port and gRPC port must differ (both %d)", c.Port)
	}

	// Validate Auth
	if len(c.Auth.TokenKey) < 16 {
		return fmt.Errorf("token key must be at least 16 bytes long")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive, got %s", c.Auth.TokenLifetime)
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("clock skew cannot be negative, got %s", c.Auth.ClockSkew)
	}
	for id, secret := range c.Auth.Clients {
		if id == "" || secret == "" {
			return fmt.Errorf("registered clients need a non-empty id and secret")
		}
	}

	// Validate Stream
	if c.Stream.SampleCount < 1 {
		return fmt.Errorf("stream sample count must be at least 1, got %d", c.Stream.SampleCount)
	}
	if c.Stream.SampleInterval < 0 {
		return fmt.Errorf("stream sample interval cannot be negative, got %s", c.Stream.SampleInterval)
	}
	if c.Stream.QueueCapacity < 1 {
		return fmt.Errorf("stream queue capacity must be at least 1, got %d", c.Stream.QueueCapacity)
	}
	if c.Stream.MaxWorkers < 0 {
		return fmt.Errorf("stream max workers cannot be negative, got %d", c.Stream.MaxWorkers)
	}

	// Validate Sampler
	if c.Sampler.MinPrice >= c.Sampler.MaxPrice {
		return fmt.Errorf("sampler price range [%d, %d) is empty", c.Sampler.MinPrice, c.Sampler.MaxPrice)
	}

	// Validate Health
	if c.Health.PollPeriod <= 0 {
		return fmt.Errorf("health poll period must be positive, got %s", c.Health.PollPeriod)
	}

	// Validate catalog override
	seen := make(map[string]bool, len(c.Stocks))
	for i, stock := range c.Stocks {
		if stock == nil || stock.StockId == "" {
			return fmt.Errorf("stock %d: id cannot be empty", i)
		}
		if seen[stock.StockId] {
			return fmt.Errorf("stock '%s' is listed twice", stock.StockId)
		}
		seen[stock.StockId] = true
	}

	// Validation of NATS config (minimal check)
	if c.NATS.Enabled && len(c.NATS.Servers) == 0 {
		return fmt.Errorf("NATS servers list cannot be empty when NATS is enabled")
	}
	if c.NATS.Encoding != "json" && c.NATS.Encoding != "gob" {
		return fmt.Errorf("unsupported NATS encoding '%s' (json or gob)", c.NATS.Encoding)
	}
	if c.NATS.JetStream != nil && c.NATS.JetStream.Enabled && c.NATS.JetStream.StreamName == "" {
		return fmt.Errorf("JetStream stream name cannot be empty when JetStream is enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------

// GRPCAddress returns host:port of the gRPC listener.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.GRPC_Host, c.GRPC_Port)
}

// -----------------------------------------------------------------------------

// HTTPAddress returns the listen address of the plain HTTP status server.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

// -----------------------------------------------------------------------------

// IsPublicMethod reports whether a full gRPC method name bypasses the token gate.
func (c *Config) IsPublicMethod(fullMethod string) bool {
	for _, m := range c.Auth.PublicMethods {
		if m == fullMethod {
			return true
		}
	}
	return false
}
