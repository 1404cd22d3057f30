package notify

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wonny/squeeze/internal/contracts"
)

// maxMessageLength is the Telegram sendMessage text limit. Byte length
// is a conservative stand-in for the character count Telegram enforces.
const maxMessageLength = 4096

// blockSeparator frames each candidate block in the alert.
const blockSeparator = "━━━━━━━━━━━━━━━━━━━━━━"

// FormatCandidate renders one ranked candidate as a display block.
func FormatCandidate(sc contracts.ScoredCandidate) string {
	c := sc.Candidate

	var b strings.Builder
	b.WriteString(blockSeparator + "\n")
	fmt.Fprintf(&b, "🎯 %s - %s\n", c.Symbol, c.Name)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Short Interest: %.1f%% of float\n", floatValue(c.ShortInterestPct)*100)
	fmt.Fprintf(&b, "Days to Cover: %.1f days\n", floatValue(c.DaysToCover))
	fmt.Fprintf(&b, "Float: %.1fM shares\n", float64(intValue(c.FloatShares))/1e6)

	spike, _ := c.VolumeSpike()
	fmt.Fprintf(&b, "Volume Spike: %.1fx average\n", spike)
	fmt.Fprintf(&b, "Current Price: $%.2f\n", floatValue(c.Price))
	fmt.Fprintf(&b, "Market Cap: %s\n", formatMarketCap(intValue(c.MarketCap)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Squeeze Score: %d/100\n", int(math.Round(sc.CompositeScore)))
	b.WriteString(blockSeparator)

	return b.String()
}

// FormatDailyAlert composes the full alert for the ranked candidates.
func FormatDailyAlert(scored []contracts.ScoredCandidate, scanDate time.Time) string {
	blocks := make([]string, len(scored))
	for i, sc := range scored {
		blocks[i] = FormatCandidate(sc)
	}

	plural := "s"
	if len(scored) == 1 {
		plural = ""
	}

	header := fmt.Sprintf(
		"📊 SHORT SQUEEZE SCREENER\n📅 %s\n\nFound %d candidate%s meeting criteria:\n",
		scanDate.Format("2006-01-02"), len(scored), plural,
	)

	return header + "\n" + strings.Join(blocks, "\n\n") + disclaimer()
}

// FormatNoCandidates composes the alert for an empty survivor list.
func FormatNoCandidates(scanDate time.Time) string {
	return fmt.Sprintf(
		"📊 SHORT SQUEEZE SCREENER\n📅 %s\n\nNo stocks met all screening criteria today.",
		scanDate.Format("2006-01-02"),
	) + disclaimer()
}

func disclaimer() string {
	return "\n\n⚠️ This is not financial advice.\nAlways do your own research."
}

// SplitMessage splits a message into chunks that fit the API limit.
// It splits on separator lines to keep candidate blocks intact, falls
// back to newline boundaries, and hard-cuts as a last resort.
func SplitMessage(message string, maxLength int) []string {
	if len(message) <= maxLength {
		return []string{message}
	}

	parts := strings.Split(message, blockSeparator)
	var chunks []string
	current := ""

	for _, part := range parts {
		piece := part
		if current != "" {
			piece = blockSeparator + part
		}

		if len(current)+len(piece) <= maxLength {
			current += piece
			continue
		}
		if strings.TrimSpace(current) != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
		current = strings.TrimSpace(part)
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	// Any chunk still over the limit splits at newline boundaries
	var final []string
	for _, chunk := range chunks {
		if len(chunk) <= maxLength {
			final = append(final, chunk)
			continue
		}
		final = append(final, splitAtNewlines(chunk, maxLength)...)
	}

	if len(final) == 0 {
		head, _ := cutAtRune(message, maxLength)
		return []string{head}
	}
	return final
}

func splitAtNewlines(chunk string, maxLength int) []string {
	var out []string
	sub := ""

	for _, line := range strings.Split(chunk, "\n") {
		// A single oversized line gets hard-cut
		for len(line) > maxLength {
			if strings.TrimSpace(sub) != "" {
				out = append(out, strings.TrimSpace(sub))
				sub = ""
			}
			var head string
			head, line = cutAtRune(line, maxLength)
			out = append(out, head)
		}

		if len(sub)+len(line)+1 <= maxLength {
			sub += line + "\n"
			continue
		}
		if strings.TrimSpace(sub) != "" {
			out = append(out, strings.TrimSpace(sub))
		}
		sub = line + "\n"
	}

	if strings.TrimSpace(sub) != "" {
		out = append(out, strings.TrimSpace(sub))
	}
	return out
}

// cutAtRune cuts s at max bytes without splitting a rune.
func cutAtRune(s string, max int) (string, string) {
	if len(s) <= max {
		return s, ""
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i], s[i:]
}

// formatMarketCap renders a market cap as $X.XB or $XM.
func formatMarketCap(v int64) string {
	if v >= 1_000_000_000 {
		return fmt.Sprintf("$%.1fB", float64(v)/1e9)
	}
	return fmt.Sprintf("$%.0fM", float64(v)/1e6)
}

func floatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func intValue(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
