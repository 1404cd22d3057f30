package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/squeeze/internal/pipeline"
	"github.com/wonny/squeeze/pkg/config"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// printSeparator prints a visual separator
func printSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// printRunSummary prints the outcome of one scan run.
func printRunSummary(result *pipeline.RunResult) {
	fmt.Println()
	printSeparator()
	fmt.Printf("  Run       : %s\n", result.RunID)
	fmt.Printf("  Universe  : %d symbols\n", result.UniverseSize)
	fmt.Printf("  Collected : %d (skipped %d)\n", result.Collected, len(result.Skipped))
	fmt.Printf("  Survivors : %d\n", result.Survivors)

	if len(result.FilterCounts) > 0 {
		names := make([]string, 0, len(result.FilterCounts))
		for name := range result.FilterCounts {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %d", name, result.FilterCounts[name]))
		}
		fmt.Printf("  Filtered  : %s\n", strings.Join(parts, ", "))
	}

	for _, sc := range result.Top {
		fmt.Printf("    #%d %-6s %s (score %.1f)\n", sc.Rank, sc.Candidate.Symbol, sc.Candidate.Name, sc.CompositeScore)
	}

	fmt.Printf("  Duration  : %.2fs\n", result.Duration.Seconds())
	printSeparator()

	if result.Success {
		fmt.Println("✅ Scan completed")
	} else if result.Error != nil {
		fmt.Printf("❌ Scan failed: %v\n", result.Error)
	}
}

// printConfigSummary prints the effective screening configuration.
func printConfigSummary(cfg *config.Config) {
	fmt.Printf("   Env        : %s\n", cfg.Env)
	fmt.Printf("   Chat ID    : %s\n", cfg.Telegram.ChatID)
	fmt.Printf("   Market cap : $%s - $%s\n", formatUSD(cfg.Screen.MinMarketCap), formatUSD(cfg.Screen.MaxMarketCap))
	fmt.Printf("   Filters    : SI >= %.0f%%, DTC >= %.1f, float <= %s, spike >= %.1fx\n",
		cfg.Screen.MinShortInterest*100, cfg.Screen.MinDaysToCover,
		formatShares(cfg.Screen.MaxFloatShares), cfg.Screen.MinVolumeSpike)
	fmt.Printf("   Weights    : SI %.2f, DTC %.2f, spike %.2f, float %.2f\n",
		cfg.Weights.ShortInterest, cfg.Weights.DaysToCover, cfg.Weights.VolumeSpike, cfg.Weights.Float)
	fmt.Printf("   Schedule   : %s\n", cfg.Schedule.Cron)
}

// formatUSD renders a dollar amount in B/M units.
func formatUSD(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(v)/1e9)
	case v >= 1_000_000:
		return fmt.Sprintf("%.0fM", float64(v)/1e6)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// formatShares renders a share count in millions.
func formatShares(v int64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("%.0fM shares", float64(v)/1e6)
	}
	return fmt.Sprintf("%d shares", v)
}
