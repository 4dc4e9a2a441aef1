package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixise/geb-ledger/internal/blockchain"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		wantError bool
		want      []string
	}{
		{
			name: "single rpc_url converts to rpc_urls",
			cfg:  &Config{RPCUrl: "https://rpc1.example.com"},
			want: []string{"https://rpc1.example.com"},
		},
		{
			name: "rpc_urls takes precedence over rpc_url",
			cfg: &Config{
				RPCUrl:  "https://rpc1.example.com",
				RPCUrls: []string{"https://rpc2.example.com", "https://rpc3.example.com"},
			},
			want: []string{"https://rpc2.example.com", "https://rpc3.example.com"},
		},
		{
			name: "empty rpc_urls with non-empty rpc_url still converts",
			cfg:  &Config{RPCUrl: "https://rpc1.example.com", RPCUrls: []string{}},
			want: []string{"https://rpc1.example.com"},
		},
		{
			name:      "both empty returns error",
			cfg:       &Config{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Normalize()
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, tt.cfg.RPCUrl)
			assert.Equal(t, tt.want, tt.cfg.RPCUrls)
		})
	}
}

func TestConfigGetTimezone(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantName string
	}{
		{"UTC timezone", "UTC", "UTC"},
		{"empty timezone defaults to UTC", "", "UTC"},
		{"named timezone", "Europe/Brussels", "Europe/Brussels"},
		{"unknown timezone falls back to UTC", "Mars/Olympus", "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Timezone: tt.timezone}
			assert.Equal(t, tt.wantName, cfg.GetTimezone().String())
		})
	}
}

func TestConfigShouldRunImmediately(t *testing.T) {
	trueVal := true
	falseVal := false

	assert.True(t, (&Config{RunImmediately: &trueVal}).ShouldRunImmediately())
	assert.False(t, (&Config{RunImmediately: &falseVal}).ShouldRunImmediately())
	assert.True(t, (&Config{}).ShouldRunImmediately(), "defaults to true")
}

func TestConfigIsCronSchedule(t *testing.T) {
	assert.True(t, (&Config{Interval: "*/5 * * * *"}).IsCronSchedule())
	assert.True(t, (&Config{Interval: "0 */30 * * * *"}).IsCronSchedule())
	assert.False(t, (&Config{Interval: "5m"}).IsCronSchedule())
	assert.False(t, (&Config{}).IsCronSchedule())
}

func TestConfigUsesPostgres(t *testing.T) {
	assert.True(t, (&Config{}).UsesPostgres())
	assert.True(t, (&Config{Store: StorePostgres}).UsesPostgres())
	assert.False(t, (&Config{Store: StoreMemory}).UsesPostgres())
}

func TestConfigWatchedContracts(t *testing.T) {
	cfg := &Config{Contracts: []ContractConfig{
		{Label: "RAI", Kind: "coin", Address: "0x03ab458634910aad20ef5f1c8ee96f1d6ac54919"},
		{Label: "RAI/ETH", Kind: "uniswap_pair", Address: "0x8ae720a71622e824f576b4a8c03031066548a3b1"},
	}}

	contracts, err := cfg.WatchedContracts()
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, blockchain.KindCoin, contracts[0].Kind)
	assert.Equal(t, common.HexToAddress("0x8ae720a71622e824f576b4a8c03031066548a3b1"), contracts[1].Address)
	assert.Equal(t, "RAI/ETH", contracts[1].Label)

	cfg.Contracts[0].Kind = "erc721"
	_, err = cfg.WatchedContracts()
	assert.Error(t, err)
}
