package imapclient

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters about a session.
//
// Commands and CommandDuration are labelled with "verb" (and "status" for
// Commands).
type Metrics struct {
	Commands        metrics.Counter
	CommandDuration metrics.Histogram
	LiteralBytes    metrics.Counter
	Desyncs         metrics.Counter
	Disconnects     metrics.Counter
}

// NewDiscardMetrics returns metrics that are thrown away.
func NewDiscardMetrics() *Metrics {
	return &Metrics{
		Commands:        discard.NewCounter(),
		CommandDuration: discard.NewHistogram(),
		LiteralBytes:    discard.NewCounter(),
		Desyncs:         discard.NewCounter(),
		Disconnects:     discard.NewCounter(),
	}
}

// NewPrometheusMetrics registers session metrics with the default
// Prometheus registry.
//
// It must be called once per namespace: engines of all accounts share the
// returned value.
func NewPrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Commands: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "imap",
			Name:      "commands_total",
			Help:      "Number of completed commands.",
		}, []string{"verb", "status"}),
		CommandDuration: prometheus.NewHistogramFrom(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "imap",
			Name:      "command_duration_seconds",
			Help:      "Time between writing a command and reading its completion.",
		}, []string{"verb"}),
		LiteralBytes: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "imap",
			Name:      "literal_bytes_total",
			Help:      "Number of literal bytes read.",
		}, nil),
		Desyncs: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "imap",
			Name:      "desync_events_total",
			Help:      "Number of responses that could not be parsed.",
		}, nil),
		Disconnects: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "imap",
			Name:      "disconnects_total",
			Help:      "Number of sessions closed on a fatal error.",
		}, nil),
	}
}
