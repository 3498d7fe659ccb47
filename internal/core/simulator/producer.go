// Package simulator generates the synthetic shop activity that feeds the
// live dashboard: customer visits and the transport heartbeat.
package simulator

import (
	"RetailPulse/internal/adapters/metrics"
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Producer simulates one customer visit at a time, forever.
type Producer struct {
	store     ports.SaleStore
	publisher ports.EventPublisher
	policy    Policy
	rnd       Rand
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewProducer creates a producer. The policy must already be valid.
func NewProducer(
	store ports.SaleStore,
	publisher ports.EventPublisher,
	policy Policy,
	rnd Rand,
	clock clockwork.Clock,
	baseLogger *zerolog.Logger,
) *Producer {
	return &Producer{
		store:     store,
		publisher: publisher,
		policy:    policy,
		rnd:       rnd,
		clock:     clock,
		log:       baseLogger.With().Str("component", "producer").Logger(),
	}
}

// Run loops until ctx is cancelled or the store reports a fatal error.
// Transient failures are logged and retried after the cooldown.
func (p *Producer) Run(ctx context.Context) error {
	p.log.Info().
		Dur("min_wait", p.policy.MinWait).
		Dur("max_wait", p.policy.MaxWait).
		Msg("Producer started")

	for {
		visit, err := p.safeIteration(ctx)

		var wait time.Duration
		switch {
		case err != nil && ctx.Err() != nil:
			p.log.Info().Msg("Producer stopped (context done)")
			return nil
		case err != nil && domain.IsFatal(err):
			metrics.VisitsTotal.WithLabelValues(metrics.VisitFailed).Inc()
			p.log.Error().Err(err).Msg("Producer hit a fatal store error, stopping")
			return err
		case err != nil:
			metrics.VisitsTotal.WithLabelValues(metrics.VisitFailed).Inc()
			wait = p.policy.CooldownOnError
			p.log.Warn().Err(err).Dur("cooldown", wait).Msg("Visit failed, cooling down")
		case visit == nil:
			metrics.VisitsTotal.WithLabelValues(metrics.VisitEmpty).Inc()
			wait = p.policy.nextWait(p.rnd)
			p.log.Warn().Dur("next_in", wait).Msg("Catalog is empty, nothing to sell")
		default:
			metrics.VisitsTotal.WithLabelValues(metrics.VisitPublished).Inc()
			wait = p.policy.nextWait(p.rnd)
			p.log.Info().
				Str("items", visit.Message()).
				Str("total", visit.TotalPrice.String()).
				Dur("next_in", wait).
				Msg("Customer visit published")
		}

		select {
		case <-ctx.Done():
			p.log.Info().Msg("Producer stopped (context done)")
			return nil
		case <-p.clock.After(wait):
		}
	}
}

// safeIteration is the iteration boundary: a panic in one visit becomes a
// transient error instead of taking the loop down.
func (p *Producer) safeIteration(ctx context.Context) (visit *domain.VisitSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			visit = nil
			err = fmt.Errorf("producer iteration panicked: %v", r)
		}
	}()
	return p.RunOnce(ctx)
}

// RunOnce synthesizes and persists one visit, then publishes it.
// It returns (nil, nil) when the catalog had nothing to sell. On any error no
// event is published; lines recorded before the failure are not retried.
func (p *Producer) RunOnce(ctx context.Context) (*domain.VisitSummary, error) {
	basketSize := pickWeighted(p.rnd, p.policy.BasketSizeWeights)

	items, err := p.store.PickRandomItems(ctx, basketSize)
	if err != nil {
		return nil, fmt.Errorf("pick %d catalog items: %w", basketSize, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) < basketSize {
		p.log.Debug().Int("requested", basketSize).Int("got", len(items)).Msg("Catalog returned fewer items than requested")
	}

	now := p.clock.Now()
	lines := make([]domain.SaleLine, 0, len(items))
	for _, item := range items {
		units := pickWeighted(p.rnd, p.policy.UnitsPerItemWeights)
		price := item.BasePrice.Scale(p.policy.jitter(p.rnd))
		line, err := domain.NewSaleLine(item, units, price, now)
		if err != nil {
			return nil, fmt.Errorf("build line for sku %d: %w", item.SKU, err)
		}
		lines = append(lines, line)
	}

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("visit aborted after %d of %d lines: %w", i, len(lines), err)
		}
		if err := p.persist(ctx, line); err != nil {
			return nil, fmt.Errorf("record line %d of %d (sku %d): %w", i+1, len(lines), line.SKU, err)
		}
		metrics.SaleLinesRecorded.Inc()
	}

	summary := domain.NewVisitSummary(lines, now)
	p.publisher.Publish(domain.SaleEvent(summary))
	return &summary, nil
}

// persist records one line on a context detached from shutdown, so an insert
// already on the wire finishes or fails on its own terms.
func (p *Producer) persist(ctx context.Context, line domain.SaleLine) error {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.policy.PersistTimeout)
	defer cancel()

	err := p.store.RecordSale(persistCtx, line)
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTransientError("record_sale", err)
	}
	return err
}
