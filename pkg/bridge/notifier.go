package bridge

import (
	"context"
	"time"

	"genesisbridge/pkg/channels"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/state"
	"genesisbridge/pkg/utils"
)

const sendTimeout = 30 * time.Second

// notifier delivers outbound messages to the operator. Ambient notifications
// pass through the rate limiter; direct replies always go out.
type notifier struct {
	telegram *channels.TelegramChannel
	limiter  *state.NotifyLimiter
}

func newNotifier(telegram *channels.TelegramChannel, limiter *state.NotifyLimiter) *notifier {
	return &notifier{telegram: telegram, limiter: limiter}
}

func (n *notifier) Notify(text string) {
	if !n.limiter.Allow() {
		logger.DebugCF("notify", "Notification rate-limited", map[string]interface{}{
			"preview": utils.Truncate(text, 60),
		})
		return
	}
	n.deliver(text)
}

func (n *notifier) Reply(text string) {
	n.deliver(text)
}

func (n *notifier) deliver(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.telegram.Send(ctx, text); err != nil {
		logger.WarnCF("notify", "Send failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
