// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Execution modes. Paper mode runs against in-memory venues only.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Adapter   AdapterConfig   `mapstructure:"adapter"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Rates     RatesConfig     `mapstructure:"rates"`
	API       APIConfig       `mapstructure:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name         string `mapstructure:"name"`
	Environment  string `mapstructure:"environment"`
	LogLevel     string `mapstructure:"log_level"`
	AdminAddress string `mapstructure:"admin_address"`
}

// AdminAddressHex returns the admin address as common.Address.
func (c *AppConfig) AdminAddressHex() common.Address {
	return common.HexToAddress(c.AdminAddress)
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRPS         float64       `mapstructure:"max_rps"`
}

// AdapterConfig holds the external AMM addresses the conversion
// adapter talks to.
type AdapterConfig struct {
	RouterAddress  string `mapstructure:"router_address"`
	FactoryAddress string `mapstructure:"factory_address"`
	WETHAddress    string `mapstructure:"weth_address"`
	SwapFeeBps     uint64 `mapstructure:"swap_fee_bps"`
}

// RouterAddressHex returns the router address as common.Address.
func (c *AdapterConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *AdapterConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// WETHAddressHex returns the wrapped-native address as common.Address.
func (c *AdapterConfig) WETHAddressHex() common.Address {
	return common.HexToAddress(c.WETHAddress)
}

// FeesConfig holds the protocol fee model settings.
type FeesConfig struct {
	StakeFeeBps      uint64 `mapstructure:"stake_fee_bps"`
	TradeFeeBps      uint64 `mapstructure:"trade_fee_bps"`
	MaxReferralBps   uint64 `mapstructure:"max_referral_bps"`
	CollectorAddress string `mapstructure:"collector_address"`
}

// CollectorAddressHex returns the fee collector address as common.Address.
func (c *FeesConfig) CollectorAddressHex() common.Address {
	return common.HexToAddress(c.CollectorAddress)
}

// RoutingConfig holds path and execution settings.
type RoutingConfig struct {
	Mode    string `mapstructure:"mode"` // paper | live
	MaxHops int    `mapstructure:"max_hops"`
}

// RatesConfig holds the conversion-rate feed settings. The feed keeps
// the paper-mode conversion table aligned with market prices.
type RatesConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BinanceURL      string        `mapstructure:"binance_url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Symbols         []string      `mapstructure:"symbols"`
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
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
	v.SetEnvPrefix("DATAX")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
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
	v.BindEnv("app.name", "DATAX_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DATAX_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DATAX_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.admin_address", "DATAX_ADMIN_ADDRESS", "ADMIN_ADDRESS")

	// Ethereum
	v.BindEnv("ethereum.http_url", "DATAX_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "DATAX_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Adapter
	v.BindEnv("adapter.router_address", "DATAX_ADAPTER_ROUTER", "ADAPTER_ROUTER")
	v.BindEnv("adapter.factory_address", "DATAX_ADAPTER_FACTORY", "ADAPTER_FACTORY")
	v.BindEnv("adapter.weth_address", "DATAX_ADAPTER_WETH", "ADAPTER_WETH")

	// Fees
	v.BindEnv("fees.stake_fee_bps", "DATAX_STAKE_FEE_BPS")
	v.BindEnv("fees.trade_fee_bps", "DATAX_TRADE_FEE_BPS")
	v.BindEnv("fees.max_referral_bps", "DATAX_MAX_REFERRAL_BPS")
	v.BindEnv("fees.collector_address", "DATAX_FEE_COLLECTOR")

	// Routing
	v.BindEnv("routing.mode", "DATAX_ROUTING_MODE")
	v.BindEnv("routing.max_hops", "DATAX_MAX_HOPS")

	// API
	v.BindEnv("api.listen_addr", "DATAX_API_LISTEN_ADDR", "API_LISTEN_ADDR")

	// Telemetry
	v.BindEnv("telemetry.enabled", "DATAX_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DATAX_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "DATAX_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "datax-router")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.admin_address", "0x0000000000000000000000000000000000000001")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.request_timeout", "10s")
	v.SetDefault("ethereum.max_rps", 10)

	// Uniswap V2 Mainnet defaults
	v.SetDefault("adapter.router_address", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	v.SetDefault("adapter.factory_address", "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	v.SetDefault("adapter.weth_address", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("adapter.swap_fee_bps", 30) // 0.3%

	// Fee defaults
	v.SetDefault("fees.stake_fee_bps", 10)
	v.SetDefault("fees.trade_fee_bps", 20)
	v.SetDefault("fees.max_referral_bps", 100)
	v.SetDefault("fees.collector_address", "0x0000000000000000000000000000000000000000")

	// Routing defaults
	v.SetDefault("routing.mode", ModePaper)
	v.SetDefault("routing.max_hops", 4)

	// Rate feed defaults
	v.SetDefault("rates.enabled", false)
	v.SetDefault("rates.binance_url", "https://api.binance.com")
	v.SetDefault("rates.refresh_interval", "30s")
	v.SetDefault("rates.symbols", []string{"ETHUSDT", "OCEANUSDT"})

	// API defaults
	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.shutdown_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "datax-router")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Routing.Mode != ModePaper && c.Routing.Mode != ModeLive {
		return fmt.Errorf("routing.mode must be %q or %q, got %q", ModePaper, ModeLive, c.Routing.Mode)
	}
	if c.Routing.Mode == ModeLive && c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required in live mode")
	}
	if c.Routing.MaxHops < 1 {
		return fmt.Errorf("routing.max_hops must be at least 1")
	}
	if !common.IsHexAddress(c.App.AdminAddress) || c.App.AdminAddressHex() == (common.Address{}) {
		return fmt.Errorf("app.admin_address must be a non-zero address, got %s", c.App.AdminAddress)
	}
	if !common.IsHexAddress(c.Adapter.RouterAddress) {
		return fmt.Errorf("invalid adapter.router_address: %s", c.Adapter.RouterAddress)
	}
	if !common.IsHexAddress(c.Adapter.FactoryAddress) {
		return fmt.Errorf("invalid adapter.factory_address: %s", c.Adapter.FactoryAddress)
	}
	if !common.IsHexAddress(c.Adapter.WETHAddress) {
		return fmt.Errorf("invalid adapter.weth_address: %s", c.Adapter.WETHAddress)
	}
	if !common.IsHexAddress(c.Fees.CollectorAddress) {
		return fmt.Errorf("invalid fees.collector_address: %s", c.Fees.CollectorAddress)
	}
	if c.Fees.StakeFeeBps > 1000 || c.Fees.TradeFeeBps > 1000 {
		return fmt.Errorf("protocol fee rates above 10%% are not allowed")
	}
	if c.Fees.MaxReferralBps > 10000 {
		return fmt.Errorf("fees.max_referral_bps cannot exceed 10000")
	}
	return nil
}
