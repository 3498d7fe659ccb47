package eventbus

import (
	"RetailPulse/internal/adapters/metrics"
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// subscription is one live subscriber: a bounded queue drained by its own goroutine.
type subscription struct {
	id       domain.SubscriptionID
	sink     ports.EventSink
	queue    chan domain.Event
	done     chan struct{}
	stopOnce sync.Once
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Hub implements ports.Broadcaster.
type Hub struct {
	log           zerolog.Logger
	queueCapacity int
	sendTimeout   time.Duration

	mu     sync.RWMutex
	subs   map[domain.SubscriptionID]*subscription
	closed bool

	// publishMu keeps concurrent publishers (producer, heartbeat) in one
	// order across all subscribers.
	publishMu sync.Mutex

	wg sync.WaitGroup
}

var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates an empty hub. queueCapacity bounds every subscriber's
// outbound queue; sendTimeout bounds a single transport write.
func NewHub(queueCapacity int, sendTimeout time.Duration, baseLogger *zerolog.Logger) *Hub {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	return &Hub{
		log:           baseLogger.With().Str("component", "hub").Logger(),
		queueCapacity: queueCapacity,
		sendTimeout:   sendTimeout,
		subs:          make(map[domain.SubscriptionID]*subscription),
	}
}

// Register adds sink to the live set and starts its drain goroutine.
func (h *Hub) Register(sink ports.EventSink) domain.SubscriptionID {
	sub := &subscription{
		id:    uuid.New(),
		sink:  sink,
		queue: make(chan domain.Event, h.queueCapacity),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.log.Debug().Msg("Hub is closed, rejecting subscriber")
		if err := sink.Close(); err != nil {
			h.log.Debug().Err(err).Msg("Closing rejected sink failed")
		}
		return sub.id
	}
	h.subs[sub.id] = sub
	count := len(h.subs)
	metrics.SubscribersActive.Set(float64(count))
	h.wg.Add(1)
	h.mu.Unlock()

	go h.drain(sub)

	h.log.Info().Str("subscription_id", sub.id.String()).Int("subscribers", count).Msg("Subscriber registered")
	return sub.id
}

// Unregister removes a subscriber. Unknown or already removed handles are a no-op.
func (h *Hub) Unregister(id domain.SubscriptionID) {
	if h.remove(id) {
		h.log.Info().Str("subscription_id", id.String()).Msg("Subscriber unregistered")
	}
}

// remove reports whether id was still registered.
func (h *Hub) remove(id domain.SubscriptionID) bool {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		metrics.SubscribersActive.Set(float64(len(h.subs)))
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	sub.stop()
	return true
}

// Publish enqueues event for every subscriber registered right now.
// Subscribers whose queue is full are dropped; the caller never sees it.
func (h *Hub) Publish(event domain.Event) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	var overflowed []domain.SubscriptionID

	h.mu.RLock()
	delivered := 0
	for id, sub := range h.subs {
		select {
		case sub.queue <- event:
			delivered++
		default:
			overflowed = append(overflowed, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range overflowed {
		if h.remove(id) {
			metrics.SubscribersDropped.WithLabelValues(metrics.DropQueueFull).Inc()
			h.log.Warn().
				Str("subscription_id", id.String()).
				Int("capacity", h.queueCapacity).
				Msg("Subscriber queue full, dropping subscriber")
		}
	}

	metrics.EventsPublished.WithLabelValues(string(event.Kind)).Inc()
	h.log.Debug().Str("kind", string(event.Kind)).Int("delivered", delivered).Msg("Event published")
}

// drain is the subscriber's write task. It owns the sink: it is the only
// goroutine that calls Send, and it calls Close once on exit.
func (h *Hub) drain(sub *subscription) {
	defer h.wg.Done()
	defer func() {
		if err := sub.sink.Close(); err != nil {
			h.log.Debug().Err(err).Str("subscription_id", sub.id.String()).Msg("Closing subscriber sink failed")
		}
	}()

	for {
		select {
		case <-sub.done:
			return
		case event := <-sub.queue:
			// A subscriber removed while events were queued gets nothing more.
			select {
			case <-sub.done:
				return
			default:
			}

			ctx, cancel := context.WithTimeout(context.Background(), h.sendTimeout)
			err := sub.sink.Send(ctx, event)
			cancel()
			if err != nil {
				if h.remove(sub.id) {
					metrics.SubscribersDropped.WithLabelValues(metrics.DropSendFailed).Inc()
					h.log.Warn().Err(err).Str("subscription_id", sub.id.String()).Msg("Send to subscriber failed, dropping subscriber")
				}
				return
			}
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unregisters every subscriber and waits for their drain goroutines.
// Sinks registered afterwards are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscription, 0, len(h.subs))
	for id, sub := range h.subs {
		subs = append(subs, sub)
		delete(h.subs, id)
	}
	metrics.SubscribersActive.Set(0)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}

	h.wg.Wait()
	h.log.Info().Int("closed", len(subs)).Msg("Hub closed")
}
