package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MobulaConfig holds primary aggregator API configurations.
type MobulaConfig struct {
	BaseURL              string `yaml:"baseURL"`
	Blockchain           string `yaml:"blockchain"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// CoinGeckoConfig holds secondary provider API configurations.
type CoinGeckoConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`
	BurstLimit           int     `yaml:"burstLimit"`
}

// NodeConfig holds the protocol node API configuration.
type NodeConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenPriceServiceConfig holds configuration for the price resolution
// pipeline.
type TokenPriceServiceConfig struct {
	CacheTTLMinutes          int `yaml:"cacheTTLMinutes"`
	MaxTokensPerBatchRequest int `yaml:"maxTokensPerBatchRequest"`
}

// PortfolioServiceConfig holds configuration for the portfolio aggregator.
type PortfolioServiceConfig struct {
	RefreshCooldownSeconds int `yaml:"refreshCooldownSeconds"`
	MaxConcurrentWallets   int `yaml:"maxConcurrentWallets"`
}

// FilesConfig points at the static data files.
type FilesConfig struct {
	TokenRegistry string `yaml:"tokenRegistry"`
	Wallets       string `yaml:"wallets"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Logging       LoggingConfig           `yaml:"logging"`
	Mobula        MobulaConfig            `yaml:"mobula"`
	CoinGecko     CoinGeckoConfig         `yaml:"coingecko"`
	Node          NodeConfig              `yaml:"node"`
	TokenPriceSvc TokenPriceServiceConfig `yaml:"tokenPriceService"`
	PortfolioSvc  PortfolioServiceConfig  `yaml:"portfolioService"`
	Files         FilesConfig             `yaml:"files"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Mobula.BaseURL == "" {
		cfg.Mobula.BaseURL = "https://api.mobula.io/api/1"
	}
	if cfg.Mobula.Blockchain == "" {
		cfg.Mobula.Blockchain = "alephium"
	}
	if cfg.Mobula.RequestTimeoutMillis <= 0 {
		cfg.Mobula.RequestTimeoutMillis = 10000
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.RequestTimeoutMillis <= 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.CoinGecko.RateLimitPerSecond <= 0 {
		// Public API allows roughly 10-30 calls/min; stay well under it.
		cfg.CoinGecko.RateLimitPerSecond = 0.5
	}
	if cfg.CoinGecko.BurstLimit <= 0 {
		cfg.CoinGecko.BurstLimit = 2
	}

	if cfg.Node.BaseURL == "" {
		cfg.Node.BaseURL = "http://127.0.0.1:12973"
	}
	if cfg.Node.RequestTimeoutMillis <= 0 {
		cfg.Node.RequestTimeoutMillis = 10000
	}

	if cfg.TokenPriceSvc.CacheTTLMinutes <= 0 {
		cfg.TokenPriceSvc.CacheTTLMinutes = 5
	}
	if cfg.TokenPriceSvc.MaxTokensPerBatchRequest <= 0 {
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest = 30
	}

	if cfg.PortfolioSvc.RefreshCooldownSeconds <= 0 {
		cfg.PortfolioSvc.RefreshCooldownSeconds = 30
	}
	if cfg.PortfolioSvc.MaxConcurrentWallets <= 0 {
		cfg.PortfolioSvc.MaxConcurrentWallets = 5
	}

	if cfg.Files.TokenRegistry == "" {
		cfg.Files.TokenRegistry = "data/tokens.json"
	}
	if cfg.Files.Wallets == "" {
		cfg.Files.Wallets = "data/wallets.txt"
	}
}
