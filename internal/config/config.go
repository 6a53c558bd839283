// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Node      NodeConfig      `mapstructure:"node"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// NodeConfig points at the blockchain node.
type NodeConfig struct {
	WebSocketURL string `mapstructure:"ws_url"`
	APIURL       string `mapstructure:"api_url"`
}

// RealtimeConfig tunes the realtime client.
type RealtimeConfig struct {
	PingInterval         time.Duration `mapstructure:"ping_interval"`
	PongTimeout          time.Duration `mapstructure:"pong_timeout"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	InitialBackoff       time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff           time.Duration `mapstructure:"max_backoff"`
	DedupWindow          time.Duration `mapstructure:"dedup_window"`
	WaitPollInterval     time.Duration `mapstructure:"wait_poll_interval"`
	DialTimeout          time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	ReadLimit            int64         `mapstructure:"read_limit"`
}

// FallbackConfig controls REST snapshot polling while the socket is down.
type FallbackConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("NEXUS")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "NEXUS_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "NEXUS_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "NEXUS_LOG_LEVEL", "LOG_LEVEL")

	// Node
	v.BindEnv("node.ws_url", "NEXUS_WS_URL", "WS_URL")
	v.BindEnv("node.api_url", "NEXUS_API_URL", "API_URL")

	// Realtime
	v.BindEnv("realtime.ping_interval", "NEXUS_PING_INTERVAL")
	v.BindEnv("realtime.pong_timeout", "NEXUS_PONG_TIMEOUT")
	v.BindEnv("realtime.max_reconnect_attempts", "NEXUS_MAX_RECONNECT_ATTEMPTS")
	v.BindEnv("realtime.wait_poll_interval", "NEXUS_REALTIME_WAIT_POLL_INTERVAL")

	// Fallback
	v.BindEnv("fallback.enabled", "NEXUS_FALLBACK_ENABLED")
	v.BindEnv("fallback.poll_interval", "NEXUS_FALLBACK_POLL_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "NEXUS_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "NEXUS_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "NEXUS_OTEL_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "NEXUS_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "NEXUS_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")

	// Health
	v.BindEnv("health.port", "NEXUS_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "nexus-dashboard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Node defaults
	v.SetDefault("node.ws_url", "ws://localhost:8001/ws")
	v.SetDefault("node.api_url", "http://localhost:8001")

	// Realtime defaults
	v.SetDefault("realtime.ping_interval", "30s")
	v.SetDefault("realtime.pong_timeout", "10s")
	v.SetDefault("realtime.max_reconnect_attempts", 5)
	v.SetDefault("realtime.initial_backoff", "1s")
	v.SetDefault("realtime.max_backoff", "10s")
	v.SetDefault("realtime.dedup_window", "5s")
	v.SetDefault("realtime.wait_poll_interval", "100ms")
	v.SetDefault("realtime.dial_timeout", "10s")
	v.SetDefault("realtime.write_timeout", "5s")
	v.SetDefault("realtime.read_limit", 1<<20)

	// Fallback defaults
	v.SetDefault("fallback.enabled", true)
	v.SetDefault("fallback.poll_interval", "3s")
	v.SetDefault("fallback.requests_per_minute", 30)
	v.SetDefault("fallback.request_timeout", "5s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "nexus-dashboard")
	v.SetDefault("telemetry.trace_provider", "none")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validateURL("node.ws_url", c.Node.WebSocketURL, "ws", "wss"); err != nil {
		return err
	}
	if c.Fallback.Enabled {
		if err := validateURL("node.api_url", c.Node.APIURL, "http", "https"); err != nil {
			return err
		}
		if c.Fallback.PollInterval <= 0 {
			return fmt.Errorf("fallback.poll_interval must be positive")
		}
	}
	if c.Realtime.PingInterval <= 0 || c.Realtime.PongTimeout <= 0 {
		return fmt.Errorf("realtime.ping_interval and realtime.pong_timeout must be positive")
	}
	if c.Realtime.PongTimeout >= c.Realtime.PingInterval {
		return fmt.Errorf("realtime.pong_timeout (%s) must be shorter than realtime.ping_interval (%s)",
			c.Realtime.PongTimeout, c.Realtime.PingInterval)
	}
	if c.Realtime.WaitPollInterval <= 0 {
		return fmt.Errorf("realtime.wait_poll_interval must be positive")
	}
	if c.Realtime.DialTimeout <= 0 || c.Realtime.WriteTimeout <= 0 {
		return fmt.Errorf("realtime.dial_timeout and realtime.write_timeout must be positive")
	}
	if c.Realtime.ReadLimit <= 0 {
		return fmt.Errorf("realtime.read_limit must be positive")
	}
	if c.Realtime.MaxReconnectAttempts < 0 {
		return fmt.Errorf("realtime.max_reconnect_attempts cannot be negative")
	}
	if c.Realtime.InitialBackoff <= 0 || c.Realtime.MaxBackoff < c.Realtime.InitialBackoff {
		return fmt.Errorf("realtime backoff must satisfy 0 < initial_backoff <= max_backoff")
	}
	if c.Realtime.DedupWindow < 0 {
		return fmt.Errorf("realtime.dedup_window cannot be negative")
	}
	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s scheme %q, want one of %v", key, u.Scheme, schemes)
}
