package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/squeeze/internal/notify"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// testNotifyCmd represents the test-notify command
var testNotifyCmd = &cobra.Command{
	Use:   "test-notify",
	Short: "Send a test message to the configured Telegram chat",
	Long: `Sends one test message through the configured bot so the
token, chat id, and network path can be verified end to end before
the first scheduled scan.

Example:
  go run ./cmd/squeeze test-notify`,
	RunE: runTestNotify,
}

func init() {
	rootCmd.AddCommand(testNotifyCmd)
}

func runTestNotify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	client := notify.NewTelegramClient(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	message := fmt.Sprintf(
		"🧪 Test message from the short squeeze screener\n📅 %s\n\nIf you can read this, the bot token and chat id are configured correctly.",
		time.Now().Format("2006-01-02 15:04:05"),
	)

	fmt.Println("Sending test message...")
	if err := client.SendMessage(ctx, message); err != nil {
		return fmt.Errorf("send test message: %w", err)
	}

	fmt.Println("✅ Test message delivered")
	return nil
}
