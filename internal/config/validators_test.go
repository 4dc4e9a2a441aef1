package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		RPCUrls: []string{"https://rpc.example.com"},
		Contracts: []ContractConfig{
			{Label: "RAI", Kind: "coin", Address: "0x03ab458634910aad20ef5f1c8ee96f1d6ac54919"},
		},
	}
}

func TestEthAddressValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		address   string
		wantError bool
	}{
		{"valid address with 0x prefix", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", false},
		{"valid address all lowercase", "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", false},
		{"zero address is valid", "0x0000000000000000000000000000000000000000", false},
		{"valid address without 0x prefix", "742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", false},
		{"too short", "0x742d35Cc", true},
		{"too long", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb123", true},
		{"invalid hex character", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEg0", true},
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Contracts[0].Address = tt.address

			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContractKindValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		kind      string
		wantError bool
	}{
		{"coin", false},
		{"uniswap_pair", false},
		{"auction_house", false},
		{"savior", false},
		{"COIN", true},
		{"erc721", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := validConfig()
			cfg.Contracts[0].Kind = tt.kind

			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		interval  string
		wantError bool
	}{
		{"valid duration 5m", "5m", false},
		{"valid duration 1h", "1h", false},
		{"valid cron 5 fields", "*/5 * * * *", false},
		{"valid cron 6 fields with seconds", "*/30 * * * * *", false},
		{"empty interval is valid (one-shot mode)", "", false},
		{"non-aligned duration", "7m", true},
		{"garbage", "soon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Interval = tt.interval

			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimezoneValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		timezone  string
		wantError bool
	}{
		{"UTC", "UTC", false},
		{"America/New_York", "America/New_York", false},
		{"Europe/Paris", "Europe/Paris", false},
		{"empty timezone is valid (defaults to UTC)", "", false},
		{"invalid timezone", "Invalid/Timezone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Timezone = tt.timezone

			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFieldValidation(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"no contracts", func(c *Config) { c.Contracts = nil }, true},
		{"contract without label", func(c *Config) { c.Contracts[0].Label = "" }, true},
		{"no rpc urls", func(c *Config) { c.RPCUrls = nil }, true},
		{"invalid rpc url", func(c *Config) { c.RPCUrls = []string{"not a url"} }, true},
		{"memory store", func(c *Config) { c.Store = StoreMemory }, false},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, true},
		{"http port too low", func(c *Config) { c.HTTPPort = 80 }, true},
		{"http port in range", func(c *Config) { c.HTTPPort = 9090 }, false},
		{"log level uppercase rejected", func(c *Config) { c.LogLevel = "DEBUG" }, true},
		{"log level warn", func(c *Config) { c.LogLevel = "warn" }, false},
		{"batch size zero means default", func(c *Config) { c.BatchSize = 0 }, false},
		{"batch size too large", func(c *Config) { c.BatchSize = 1_000_000 }, true},
		{"too many confirmations", func(c *Config) { c.Confirmations = 5000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
