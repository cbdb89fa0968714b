package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maphikza/xrpl-wallet-custody/internal/config"
	"github.com/Maphikza/xrpl-wallet-custody/internal/logger"
)

var (
	cfg       *config.Config
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "xrpl-wallet",
	Short: "XRP Ledger custody wallet CLI",
	Long: `Keeps XRP Ledger account credentials in a local encrypted store, queries
the ledger over JSON-RPC and drives signed transactions to a final outcome.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding config.json and .env")

	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(txCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	if err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	// each session starts with a clean log file
	if err := logger.RotateLog(); err != nil {
		return fmt.Errorf("error rotating log file: %w", err)
	}
	return nil
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Cleanup()
		os.Exit(1)
	}
}
