package simulator

import (
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Heartbeat publishes a PING on a fixed period, independent of sales.
type Heartbeat struct {
	publisher ports.EventPublisher
	interval  time.Duration
	clock     clockwork.Clock
	log       zerolog.Logger
}

func NewHeartbeat(publisher ports.EventPublisher, interval time.Duration, clock clockwork.Clock, baseLogger *zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		log:       baseLogger.With().Str("component", "heartbeat").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	h.log.Info().Dur("interval", h.interval).Msg("Heartbeat started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Heartbeat stopped (context done)")
			return
		case <-ticker.Chan():
			h.publisher.Publish(domain.PingEvent())
		}
	}
}
