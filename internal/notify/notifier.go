package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// Sender delivers one message to the alert destination.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Notifier turns ranked candidates into the daily alert
// ⭐ SSOT: 알림 구성/발송은 여기서만
//
// An empty candidate list still produces a message: silence would be
// indistinguishable from a broken run.
type Notifier struct {
	cfg    *config.Config
	logger *logger.Logger
	sender Sender
}

// NewNotifier creates a new Notifier.
func NewNotifier(cfg *config.Config, log *logger.Logger, sender Sender) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: log.WithField("module", "notifier"),
		sender: sender,
	}
}

// Notify formats and delivers the alert for one run. A delivery
// failure on any part fails the whole call.
func (n *Notifier) Notify(ctx context.Context, scored []contracts.ScoredCandidate, scanDate time.Time) error {
	var message string
	if len(scored) == 0 {
		message = FormatNoCandidates(scanDate)
		n.logger.Info("No candidates; sending empty-run notification")
	} else {
		top := scored
		if limit := n.cfg.Screen.TopN; limit > 0 && len(top) > limit {
			top = top[:limit]
		}
		message = FormatDailyAlert(top, scanDate)
		n.logger.WithFields(map[string]interface{}{
			"candidates": len(scored),
			"reported":   len(top),
		}).Info("Sending daily alert")
	}

	chunks := SplitMessage(message, maxMessageLength)
	for i, chunk := range chunks {
		if len(chunks) > 1 {
			n.logger.WithFields(map[string]interface{}{
				"part":  i + 1,
				"total": len(chunks),
				"chars": len(chunk),
			}).Debug("Sending message part")
		}
		if err := n.sender.SendMessage(ctx, chunk); err != nil {
			return fmt.Errorf("send alert part %d/%d: %w", i+1, len(chunks), err)
		}
	}

	n.logger.WithField("parts", len(chunks)).Info("Alert delivered")
	return nil
}
