package telegram

import (
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SaleRelay is a hub subscriber that mirrors completed visits into a
// store-manager chat. Heartbeats are not forwarded.
type SaleRelay struct {
	client ports.BotClientPort
	chatID int64
	log    zerolog.Logger
}

var _ ports.EventSink = (*SaleRelay)(nil)

// NewSaleRelay creates a relay posting to chatID.
func NewSaleRelay(client ports.BotClientPort, chatID int64, baseLogger *zerolog.Logger) *SaleRelay {
	return &SaleRelay{
		client: client,
		chatID: chatID,
		log:    baseLogger.With().Str("component", "sale_relay").Int64("chat_id", chatID).Logger(),
	}
}

// Send posts SALE events. Bot API failures are logged and swallowed so a
// flaky Telegram does not get the relay dropped from the hub.
func (r *SaleRelay) Send(ctx context.Context, event domain.Event) error {
	if event.Kind != domain.KindSale || event.Visit == nil {
		return nil
	}

	msg := NewBuilder(r.chatID).WithText(formatVisit(event.Visit)).Build()
	if err := r.client.SendMessage(ctx, msg); err != nil {
		r.log.Warn().Err(err).Msg("Failed to relay sale to chat")
	}
	return nil
}

// Close is a no-op; the bot client outlives the subscription.
func (r *SaleRelay) Close() error {
	r.log.Info().Msg("Sale relay detached")
	return nil
}

func formatVisit(visit *domain.VisitSummary) string {
	return fmt.Sprintf("🛒 *%s* Customer bought: %s \\| Total: ₹%s",
		visit.Time.Format("15:04:05"),
		EscapeMarkdownV2(visit.Message()),
		EscapeMarkdownV2(visit.TotalPrice.String()),
	)
}
