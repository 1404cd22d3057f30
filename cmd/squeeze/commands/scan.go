package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/squeeze/internal/collector"
	"github.com/wonny/squeeze/internal/external/hsi"
	"github.com/wonny/squeeze/internal/external/yahoo"
	"github.com/wonny/squeeze/internal/notify"
	"github.com/wonny/squeeze/internal/pipeline"
	"github.com/wonny/squeeze/internal/screener"
	"github.com/wonny/squeeze/internal/universe"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full squeeze scan",
	Long: `Runs the complete screening pipeline once:

1. Build the stock universe from Yahoo screener lists
2. Collect quotes, short statistics, and volume history
3. Apply the squeeze filters
4. Rank survivors by squeeze score
5. Deliver the daily alert via Telegram

The exit code is non-zero when any stage fails, alert delivery
included. An empty candidate list is a successful run: it sends a
"no candidates" notification and exits zero.

Example:
  go run ./cmd/squeeze scan`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Short Squeeze Screener ===")

	_, _, runner, err := initRunner()
	if err != nil {
		return err
	}

	result, err := runner.Run(context.Background())
	if result != nil {
		printRunSummary(result)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return nil
}

// initRunner loads configuration and wires the full pipeline.
func initRunner() (*config.Config, *logger.Logger, *pipeline.Runner, error) {
	// 1. Load and validate config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create external clients
	yahooClient := yahoo.NewClient(cfg, log)
	quoteService := yahoo.NewQuoteService(yahooClient, log)
	var shortTable collector.ShortTableSource
	if cfg.HSI.Enabled {
		shortTable = hsi.NewClient(cfg, log)
	}

	// 4. Create pipeline stages
	universeBuilder := universe.NewBuilder(cfg, log, yahooClient)
	col := collector.NewCollector(cfg, log, quoteService, yahooClient, shortTable)
	screen := screener.NewScreener(cfg.Screen, log)
	rank := screener.NewRanker(cfg.Weights, log)
	telegramClient := notify.NewTelegramClient(cfg, log)
	notifier := notify.NewNotifier(cfg, log, telegramClient)

	// 5. Create runner
	runner := pipeline.NewRunner(cfg, log, universeBuilder, col, screen, rank, notifier)

	return cfg, log, runner, nil
}
