package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeDecoded         = "decoded"
	outcomeNoContent       = "no_content"
	outcomeTransport       = "transport_error"
	outcomeDecode          = "decode_error"
	outcomeUnauthenticated = "unauthenticated"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// WithMetrics registers request counters and latency histograms on reg.
// Registration errors other than duplicate registration are ignored so a
// client can always be built.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg == nil {
			return
		}
		m := &metrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eaglebank",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "API requests by operation and outcome.",
			}, []string{"operation", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "eaglebank",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Time from sending a request to reading its body.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		m.requests = register(reg, m.requests)
		m.duration = register(reg, m.duration)
		c.metrics = m
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	if outcome != outcomeUnauthenticated {
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}
