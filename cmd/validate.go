package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/geb-ledger/internal/blockchain"
	"github.com/matrixise/geb-ledger/internal/config"
	"github.com/matrixise/geb-ledger/internal/logger"
	"github.com/matrixise/geb-ledger/internal/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file syntax and values without running the application.`,
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	logger.Setup(logLevel)

	cfg, databaseURL, err := config.LoadWithDefaults(cfgFile)
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	contracts, err := cfg.WatchedContracts()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	// Catches duplicate addresses and ABI problems before the first run.
	decoder, err := blockchain.NewDecoder(contracts)
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	for _, c := range contracts {
		slog.Info("Watching contract", "label", c.Label, "kind", c.Kind, "address", c.Address.Hex())
	}

	slog.Info("✓ Configuration valid",
		"contracts", len(contracts),
		"topics", len(decoder.Topics()),
		"rpc_urls", len(cfg.RPCUrls),
		"chain_id", cfg.ChainID,
		"start_block", cfg.StartBlock,
		"batch_size", cfg.BatchSize,
		"confirmations", cfg.Confirmations,
		"schedule", scheduler.DescribeSchedule(cfg.Interval, cfg.GetTimezone()),
		"store", cfg.Store,
		"log_level", cfg.LogLevel,
		"database_url_set", databaseURL != "",
	)

	return nil
}
