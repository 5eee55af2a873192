// Package metrics exposes the service's prometheus counters. Every method is
// safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketnest"

// Metrics holds the counters and the registry they are exported from.
type Metrics struct {
	registry      *prometheus.Registry
	ticketsMinted prometheus.Counter
	mintFallbacks prometheus.Counter
	soldOut       prometheus.Counter
	badgesAwarded *prometheus.CounterVec
}

// New registers the counters plus the Go runtime and process collectors on a
// private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ticketsMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_minted_total",
			Help:      "Tickets persisted after minting, including placeholder mints.",
		}),
		mintFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mint_fallbacks_total",
			Help:      "Tickets whose mint failed upstream and received a placeholder serial.",
		}),
		soldOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_sold_out_total",
			Help:      "Purchase attempts rejected for lack of seats.",
		}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Badges persisted to user records.",
		}, []string{"badge"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ticketsMinted,
		m.mintFallbacks,
		m.soldOut,
		m.badgesAwarded,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TicketsMinted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ticketsMinted.Add(float64(n))
}

func (m *Metrics) MintFallback() {
	if m == nil {
		return
	}
	m.mintFallbacks.Inc()
}

func (m *Metrics) SoldOut() {
	if m == nil {
		return
	}
	m.soldOut.Inc()
}

func (m *Metrics) BadgeAwarded(badgeID string) {
	if m == nil {
		return
	}
	m.badgesAwarded.WithLabelValues(badgeID).Inc()
}
