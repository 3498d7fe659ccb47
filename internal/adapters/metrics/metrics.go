// Package metrics holds the Prometheus collectors for the live sales feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for SubscribersDropped.
const (
	DropQueueFull  = "queue_full"
	DropSendFailed = "send_failed"
)

// Visit outcomes for VisitsTotal.
const (
	VisitPublished = "published"
	VisitEmpty     = "empty_catalog"
	VisitFailed    = "failed"
)

var (
	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retailpulse_hub_subscribers",
		Help: "Number of live hub subscribers",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpulse_hub_events_published_total",
		Help: "Events published through the hub",
	}, []string{"kind"})

	SubscribersDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpulse_hub_subscribers_dropped_total",
		Help: "Subscribers removed by the hub because delivery failed",
	}, []string{"reason"})

	VisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpulse_producer_visits_total",
		Help: "Simulated customer visits by outcome",
	}, []string{"outcome"})

	SaleLinesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailpulse_producer_sale_lines_recorded_total",
		Help: "Sale lines durably recorded by the producer",
	})
)
