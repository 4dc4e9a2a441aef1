package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("interval", "") // Run once by default
	v.SetDefault("http_port", DefaultHTTPPort)
	v.SetDefault("run_immediately", true)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("confirmations", 0)
	v.SetDefault("start_block", 0)

	// 2. Configure config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	// GEB_LEDGER_LOG_LEVEL -> log_level, with bare aliases below
	v.SetEnvPrefix("GEB_LEDGER")
	v.AutomaticEnv()

	for _, key := range []string{
		"rpc_url", "rpc_urls", "chain_id", "start_block", "batch_size", "confirmations",
		"store", "log_level", "interval", "http_port", "run_immediately", "timezone",
	} {
		v.BindEnv(key, strings.ToUpper(key))
	}

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 5. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated RPC_URLS env var
	if rpcURLsEnv := v.GetString("rpc_urls"); strings.Contains(rpcURLsEnv, ",") {
		urls := strings.Split(rpcURLsEnv, ",")
		for i := range urls {
			urls[i] = strings.TrimSpace(urls[i])
		}
		cfg.RPCUrls = urls
	}

	// 6. Normalize: convert single rpc_url to rpc_urls array
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config normalization failed: %w", err)
	}

	// 7. Validate with validator
	validate := NewValidator()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and, for the PostgreSQL store, the
// DATABASE_URL from the environment.
func LoadWithDefaults(configPath string) (*Config, string, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, "", err
	}

	if !cfg.UsesPostgres() {
		return cfg, "", nil
	}

	databaseURL, err := DatabaseURL()
	if err != nil {
		return nil, "", err
	}

	return cfg, databaseURL, nil
}

// DatabaseURL reads DATABASE_URL (or GEB_LEDGER_DATABASE_URL).
func DatabaseURL() (string, error) {
	v := viper.New()
	v.BindEnv("database_url", "DATABASE_URL", "GEB_LEDGER_DATABASE_URL")
	databaseURL := v.GetString("database_url")

	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return databaseURL, nil
}
