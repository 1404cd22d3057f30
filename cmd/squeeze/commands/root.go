package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "squeeze",
	Short: "Short squeeze screener for US small/mid caps",
	Long: `Short Squeeze Screener

Scans the market for small/mid-cap stocks meeting short squeeze
criteria, ranks candidates by squeeze potential, and sends daily
alerts via Telegram.

Usage:
  go run ./cmd/squeeze [command]

Examples:
  go run ./cmd/squeeze scan
  go run ./cmd/squeeze schedule
  go run ./cmd/squeeze check
  go run ./cmd/squeeze test-notify`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
