// Package config loads tool configuration from a YAML file with
// environment-variable overrides. Commands call godotenv themselves so
// a local .env participates in the same override chain.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// Config is everything the command-line tools need. Precedence per
// field: environment variable, then YAML file, then default.
type Config struct {
	// ClobHost is the matching-engine REST base URL.
	ClobHost string `yaml:"clob_host"`

	// StreamURL is the market-data websocket endpoint.
	StreamURL string `yaml:"stream_url"`

	// ChainID selects the settlement network.
	ChainID int `yaml:"chain_id"`

	// CustodyAddress is the deployed custody wallet, empty for EOA
	// trading.
	CustodyAddress string `yaml:"custody_address"`

	// SecretStorePath is the Badger directory holding credentials.
	SecretStorePath string `yaml:"secret_store_path"`

	// SecretStoreKey unlocks the secret store, hex or base64.
	SecretStoreKey string `yaml:"secret_store_key"`

	// GatewayListen is the read-only HTTP facade bind address.
	GatewayListen string `yaml:"gateway_listen"`

	// ErrorLogPath is the SQLite file recording unclassified engine
	// errors.
	ErrorLogPath string `yaml:"error_log_path"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func defaults() *Config {
	return &Config{
		ClobHost:        "https://clob.kuest.market",
		StreamURL:       "wss://ws-subscriptions.kuest.market/ws/market",
		ChainID:         int(types.ChainPolygon),
		SecretStorePath: "data/secrets",
		GatewayListen:   ":8080",
		ErrorLogPath:    "data/errlog.db",
		Log: LogConfig{
			Level:      "info",
			OutputFile: "logs/kuest.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Load reads path (optional) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	cfg.ClobHost = getEnv("KUEST_CLOB_HOST", cfg.ClobHost)
	cfg.StreamURL = getEnv("KUEST_STREAM_URL", cfg.StreamURL)
	cfg.ChainID = getEnvInt("KUEST_CHAIN_ID", cfg.ChainID)
	cfg.CustodyAddress = getEnv("KUEST_CUSTODY_ADDRESS", cfg.CustodyAddress)
	cfg.SecretStorePath = getEnv("KUEST_SECRET_STORE_PATH", cfg.SecretStorePath)
	cfg.SecretStoreKey = getEnv("KUEST_SECRET_STORE_KEY", cfg.SecretStoreKey)
	cfg.GatewayListen = getEnv("KUEST_GATEWAY_LISTEN", cfg.GatewayListen)
	cfg.ErrorLogPath = getEnv("KUEST_ERROR_LOG_PATH", cfg.ErrorLogPath)
	cfg.Log.Level = getEnv("KUEST_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.OutputFile = getEnv("KUEST_LOG_FILE", cfg.Log.OutputFile)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch types.Chain(c.ChainID) {
	case types.ChainPolygon, types.ChainAmoy:
	default:
		return errors.Errorf("unsupported chain id: %d", c.ChainID)
	}
	if c.ClobHost == "" {
		return errors.New("clob_host is required")
	}
	return nil
}

// Chain returns the typed chain id.
func (c *Config) Chain() types.Chain {
	return types.Chain(c.ChainID)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
