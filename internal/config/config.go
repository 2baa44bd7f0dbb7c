// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Rest       RestConfig       `mapstructure:"rest"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Sources    []SourceConfig   `mapstructure:"sources"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// EthereumConfig holds Ethereum node configuration for on-chain sources.
type EthereumConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// FeedConfig holds the push-based WebSocket price feed configuration.
type FeedConfig struct {
	WebSocketURL string        `mapstructure:"websocket_url"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
}

// RestConfig holds the pull-based REST price API configuration.
type RestConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MonitorConfig controls the polling loop.
type MonitorConfig struct {
	Assets            []string      `mapstructure:"assets"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	SourceA           string        `mapstructure:"source_a"`
	SourceB           string        `mapstructure:"source_b"`
}

// SourceConfig declares one oracle source for one asset.
type SourceConfig struct {
	ID           string        `mapstructure:"id"`
	Kind         string        `mapstructure:"kind"` // chainlink, feed, rest
	Asset        string        `mapstructure:"asset"`
	Aggregator   string        `mapstructure:"aggregator"` // chainlink only
	Symbol       string        `mapstructure:"symbol"`     // feed/rest only
	MaxStaleness time.Duration `mapstructure:"max_staleness"`
	Active       bool          `mapstructure:"active"`
}

// AggregatorAddress returns the aggregator address as common.Address.
func (c *SourceConfig) AggregatorAddress() common.Address {
	return common.HexToAddress(c.Aggregator)
}

// ThresholdsConfig holds profitability thresholds.
type ThresholdsConfig struct {
	MinProfitBps uint64 `mapstructure:"min_profit_bps"`
	CostRate     string `mapstructure:"cost_rate"` // decimal string, cost per effort unit
	EffortUnits  uint64 `mapstructure:"effort_units"`
}

// CostRateDecimal returns the cost rate as decimal.Decimal.
func (c *ThresholdsConfig) CostRateDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.CostRate)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp, console, empty
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("OW")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no config file, env vars and defaults only
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
	v.BindEnv("app.name", "OW_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "OW_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "OW_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("ethereum.http_url", "OW_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "OW_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	v.BindEnv("feed.websocket_url", "OW_FEED_WS_URL", "FEED_WS_URL")
	v.BindEnv("rest.base_url", "OW_REST_BASE_URL", "REST_BASE_URL")

	v.BindEnv("monitor.assets", "OW_MONITOR_ASSETS")
	v.BindEnv("monitor.poll_interval", "OW_POLL_INTERVAL")
	v.BindEnv("monitor.source_a", "OW_SOURCE_A")
	v.BindEnv("monitor.source_b", "OW_SOURCE_B")

	v.BindEnv("thresholds.min_profit_bps", "OW_MIN_PROFIT_BPS")
	v.BindEnv("thresholds.cost_rate", "OW_COST_RATE")
	v.BindEnv("thresholds.effort_units", "OW_EFFORT_UNITS")

	v.BindEnv("telemetry.enabled", "OW_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "OW_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "OW_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "oraclewatch")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	v.SetDefault("ethereum.chain_id", 1)

	v.SetDefault("feed.stale_timeout", "30s")
	v.SetDefault("rest.request_timeout", "10s")

	v.SetDefault("monitor.assets", []string{"ETH-USD"})
	v.SetDefault("monitor.poll_interval", "5s")
	v.SetDefault("monitor.requests_per_minute", 120)
	v.SetDefault("monitor.source_a", "chainlink-eth-usd")
	v.SetDefault("monitor.source_b", "rest-eth-usd")

	v.SetDefault("thresholds.min_profit_bps", 10)
	v.SetDefault("thresholds.cost_rate", "0.5")
	v.SetDefault("thresholds.effort_units", 1)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "oraclewatch")
	v.SetDefault("telemetry.trace_provider", "empty")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Monitor.Assets) == 0 {
		return fmt.Errorf("monitor.assets must not be empty")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.SourceA == "" || c.Monitor.SourceB == "" {
		return fmt.Errorf("monitor.source_a and monitor.source_b are required")
	}
	if c.Monitor.SourceA == c.Monitor.SourceB {
		return fmt.Errorf("monitor sources must be distinct")
	}
	if _, err := c.Thresholds.CostRateDecimal(); err != nil {
		return fmt.Errorf("thresholds.cost_rate: %w", err)
	}

	kinds := map[string]bool{"chainlink": true, "feed": true, "rest": true}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[src.ID+"/"+src.Asset] {
			return fmt.Errorf("sources[%d]: duplicate source %q for asset %q", i, src.ID, src.Asset)
		}
		seen[src.ID+"/"+src.Asset] = true
		if !kinds[src.Kind] {
			return fmt.Errorf("sources[%d]: unknown kind %q", i, src.Kind)
		}
		if src.Kind == "chainlink" && src.Aggregator == "" {
			return fmt.Errorf("sources[%d]: chainlink source needs an aggregator address", i)
		}
		if src.MaxStaleness <= 0 {
			return fmt.Errorf("sources[%d]: max_staleness must be positive", i)
		}
	}

	return nil
}
