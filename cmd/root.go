package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "geb-ledger",
	Short: "GEB/RAI event ledger",
	Long: `geb-ledger follows the events of a GEB deployment (the RAI coin, its
Uniswap pairs, the surplus auction house and the SAFE saviors) and keeps an
off-chain ledger of balances, allowances, pool reserves, auctions and savior
stakes in PostgreSQL.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
