package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventKind discriminates the events sent to dashboard clients.
type EventKind string

const (
	KindSale EventKind = "SALE"
	KindPing EventKind = "PING"
)

// SubscriptionID is the opaque handle of one registered subscriber.
type SubscriptionID = uuid.UUID

// Event is what the hub fans out. Visit is set only for KindSale.
type Event struct {
	Kind  EventKind
	Visit *VisitSummary
}

// SaleEvent wraps a completed visit.
func SaleEvent(visit VisitSummary) Event {
	return Event{Kind: KindSale, Visit: &visit}
}

// PingEvent is the heartbeat.
func PingEvent() Event {
	return Event{Kind: KindPing}
}

type saleWire struct {
	Kind       EventKind `json:"kind"`
	Message    string    `json:"message"`
	TotalPrice float64   `json:"totalPrice"`
	Time       string    `json:"time"`
}

type pingWire struct {
	Kind EventKind `json:"kind"`
}

// MarshalJSON encodes the dashboard wire format.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindSale:
		if e.Visit == nil {
			return nil, errors.New("sale event without visit")
		}
		return json.Marshal(saleWire{
			Kind:       KindSale,
			Message:    e.Visit.Message(),
			TotalPrice: e.Visit.TotalPrice.Float64(),
			Time:       e.Visit.Time.Format("15:04:05"),
		})
	case KindPing:
		return json.Marshal(pingWire{Kind: KindPing})
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
