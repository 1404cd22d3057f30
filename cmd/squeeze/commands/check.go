package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/squeeze/internal/external/yahoo"
	"github.com/wonny/squeeze/internal/notify"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and connectivity",
	Long: `Validates the configuration and verifies both external
dependencies without running a scan:

- Configuration: required keys present, thresholds and weights sane
- Telegram: bot token accepted by the Bot API (getMe)
- Yahoo Finance: session cookie and crumb obtainable

Exits non-zero when any check fails.

Example:
  go run ./cmd/squeeze check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Short Squeeze Screener Check ===")
	fmt.Println()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration: %v\n", err)
		return fmt.Errorf("configuration check failed: %w", err)
	}
	fmt.Println("✅ Configuration valid")
	printConfigSummary(cfg)

	log := logger.New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failures := 0

	// 2. Telegram bot token and chat
	telegramClient := notify.NewTelegramClient(cfg, log)
	username, err := telegramClient.GetMe(ctx)
	if err != nil {
		fmt.Printf("❌ Telegram: %v\n", err)
		failures++
	} else {
		fmt.Printf("✅ Telegram bot @%s reachable\n", username)
	}

	// 3. Yahoo Finance session
	yahooClient := yahoo.NewClient(cfg, log)
	if err := yahooClient.Bootstrap(ctx); err != nil {
		fmt.Printf("❌ Yahoo Finance: %v\n", err)
		failures++
	} else {
		fmt.Println("✅ Yahoo Finance session established")
	}

	fmt.Println()
	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}

	fmt.Println("All checks passed")
	return nil
}
