package eventbus

import (
	"RetailPulse/internal/adapters/metrics"
	"RetailPulse/internal/core/domain"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	closed atomic.Int32
}

func (s *recordingSink) Send(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed.Add(1)
	return nil
}

func (s *recordingSink) received() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

// failingSink fails every send.
type failingSink struct {
	sends  atomic.Int32
	closed atomic.Int32
}

func (s *failingSink) Send(ctx context.Context, event domain.Event) error {
	s.sends.Add(1)
	return errors.New("broken pipe")
}

func (s *failingSink) Close() error {
	s.closed.Add(1)
	return nil
}

// blockingSink blocks in Send until released or the context expires.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Send(ctx context.Context, event domain.Event) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *blockingSink) Close() error { return nil }

func newTestHub(t *testing.T, capacity int) *Hub {
	t.Helper()
	nopLogger := zerolog.Nop()
	hub := NewHub(capacity, time.Second, &nopLogger)
	t.Cleanup(hub.Close)
	return hub
}

func saleEvent(msg string) domain.Event {
	return domain.SaleEvent(domain.VisitSummary{Items: []string{msg}, TotalPrice: 100, Time: time.Now()})
}

func TestHub_PublishFansOutOncePerSubscriber(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		hub := newTestHub(t, 8)
		sinks := make([]*recordingSink, n)
		for i := range sinks {
			sinks[i] = &recordingSink{}
			hub.Register(sinks[i])
		}
		require.Equal(t, n, hub.Subscribers())

		event := saleEvent("1x Milk")
		hub.Publish(event)

		for _, sink := range sinks {
			require.Eventually(t, func() bool { return len(sink.received()) == 1 }, time.Second, time.Millisecond)
			assert.Equal(t, event, sink.received()[0])
		}

		// Give drains a moment to surface any duplicate.
		time.Sleep(10 * time.Millisecond)
		for _, sink := range sinks {
			assert.Len(t, sink.received(), 1)
		}
	}
}

func TestHub_PerSubscriberOrder(t *testing.T) {
	hub := newTestHub(t, 256)
	first := &recordingSink{}
	second := &recordingSink{}
	hub.Register(first)
	hub.Register(second)

	const total = 100
	for i := 0; i < total; i++ {
		if i%10 == 0 {
			hub.Publish(domain.PingEvent())
			continue
		}
		hub.Publish(saleEvent(uuid.NewString()))
	}

	for _, sink := range []*recordingSink{first, second} {
		require.Eventually(t, func() bool { return len(sink.received()) == total }, time.Second, time.Millisecond)
	}
	assert.Equal(t, first.received(), second.received())
}

func TestHub_DeadSubscriberIsIsolated(t *testing.T) {
	hub := newTestHub(t, 8)
	bad := &failingSink{}
	good := &recordingSink{}
	hub.Register(bad)
	hub.Register(good)

	hub.Publish(saleEvent("1x Milk"))

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return bad.closed.Load() == 1 }, time.Second, time.Millisecond)

	hub.Publish(saleEvent("2x Bread"))

	require.Eventually(t, func() bool { return len(good.received()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), bad.sends.Load(), "a dropped subscriber must not receive further writes")
}

func TestHub_FullQueueDropsSubscriber(t *testing.T) {
	hub := newTestHub(t, 1)
	slow := &blockingSink{release: make(chan struct{})}
	defer close(slow.release)
	good := &recordingSink{}

	hub.Register(slow)
	hub.Register(good)

	// One event may sit in Send, one fills the queue, the next overflows.
	for i := 0; i < 3; i++ {
		hub.Publish(domain.PingEvent())
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return len(good.received()) == 3 }, time.Second, time.Millisecond)
}

func TestHub_SlowSubscriberTimesOut(t *testing.T) {
	nopLogger := zerolog.Nop()
	hub := NewHub(8, 20*time.Millisecond, &nopLogger)
	t.Cleanup(hub.Close)

	stuck := &blockingSink{release: make(chan struct{})}
	defer close(stuck.release)
	hub.Register(stuck)

	hub.Publish(domain.PingEvent())

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, time.Millisecond)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub(t, 8)
	sink := &recordingSink{}
	id := hub.Register(sink)

	hub.Unregister(id)
	hub.Unregister(id)
	hub.Unregister(uuid.New())

	assert.Equal(t, 0, hub.Subscribers())
	require.Eventually(t, func() bool { return sink.closed.Load() == 1 }, time.Second, time.Millisecond)

	hub.Publish(saleEvent("1x Milk"))
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sink.received())
	assert.Equal(t, int32(1), sink.closed.Load(), "sink must be closed exactly once")
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	hub := newTestHub(t, 8)
	assert.NotPanics(t, func() { hub.Publish(domain.PingEvent()) })
}

func TestHub_NewSubscriberAfterDrop(t *testing.T) {
	hub := newTestHub(t, 8)
	bad := &failingSink{}
	hub.Register(bad)
	hub.Publish(domain.PingEvent())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, time.Millisecond)

	fresh := &recordingSink{}
	hub.Register(fresh)
	hub.Publish(saleEvent("1x Milk"))

	require.Eventually(t, func() bool { return len(fresh.received()) == 1 }, time.Second, time.Millisecond)
}

func TestHub_CloseStopsAllDrains(t *testing.T) {
	nopLogger := zerolog.Nop()
	hub := NewHub(8, time.Second, &nopLogger)
	sinks := []*recordingSink{{}, {}, {}}
	for _, sink := range sinks {
		hub.Register(sink)
	}

	hub.Close()

	assert.Equal(t, 0, hub.Subscribers())
	for _, sink := range sinks {
		assert.Equal(t, int32(1), sink.closed.Load())
	}
}

func TestHub_RegisterAfterCloseClosesSink(t *testing.T) {
	nopLogger := zerolog.Nop()
	hub := NewHub(8, time.Second, &nopLogger)
	hub.Close()

	sink := &recordingSink{}
	id := hub.Register(sink)
	hub.Publish(domain.PingEvent())

	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 0, hub.Subscribers())
	assert.Equal(t, int32(1), sink.closed.Load())
	assert.Empty(t, sink.received())
	hub.Unregister(id)
}

func TestHub_CloseRacingRegister(t *testing.T) {
	for round := 0; round < 20; round++ {
		nopLogger := zerolog.Nop()
		hub := NewHub(8, time.Second, &nopLogger)

		sinks := make([]*recordingSink, 16)
		var wg sync.WaitGroup
		for i := range sinks {
			sinks[i] = &recordingSink{}
			wg.Add(1)
			go func(sink *recordingSink) {
				defer wg.Done()
				hub.Register(sink)
			}(sinks[i])
		}
		hub.Close()
		wg.Wait()

		// Every sink is closed exactly once: by its drain before Close
		// returned, or by Register after the hub was closed.
		for _, sink := range sinks {
			require.Equal(t, int32(1), sink.closed.Load())
		}
		assert.Equal(t, 0, hub.Subscribers())
	}
}

func TestHub_SubscribersGauge(t *testing.T) {
	nopLogger := zerolog.Nop()
	hub := NewHub(8, time.Second, &nopLogger)

	first := hub.Register(&recordingSink{})
	hub.Register(&recordingSink{})
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SubscribersActive))

	hub.Unregister(first)
	hub.Unregister(first)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubscribersActive))

	hub.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SubscribersActive))
}

func TestHub_ConcurrentChurn(t *testing.T) {
	hub := newTestHub(t, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			hub.Publish(domain.PingEvent())
		}
	}()

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := hub.Register(&recordingSink{})
				hub.Unregister(id)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()
	assert.Equal(t, 0, hub.Subscribers())
}
