package ports

import (
	"RetailPulse/internal/core/domain"
	"context"
)

// EventSink is the outbound side of one subscriber's transport
// (a websocket connection, a chat relay, ...).
type EventSink interface {
	// Send writes one event. It must honour ctx's deadline.
	Send(ctx context.Context, event domain.Event) error
	// Close releases the transport. The hub calls it exactly once.
	Close() error
}

// EventPublisher is the narrow view used by the producer and the heartbeat.
type EventPublisher interface {
	// Publish is fire-and-forget; it never fails and never blocks on subscribers.
	Publish(event domain.Event)
}

// Broadcaster defines the in-process fan-out hub.
type Broadcaster interface {
	EventPublisher

	// Register adds a subscriber and returns its handle.
	Register(sink EventSink) domain.SubscriptionID

	// Unregister removes a subscriber. Unknown handles are ignored.
	Unregister(id domain.SubscriptionID)

	// Subscribers returns the current number of live subscribers.
	Subscribers() int
}
