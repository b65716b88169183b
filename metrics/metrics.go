package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	// MessagesCount counts inbound messages by kind, "command" or "text".
	MessagesCount Observer
	// CommandCount counts commands by name and outcome.
	CommandCount Observer
	// ViolationCount counts blocklist matches by enforcement action.
	ViolationCount Observer
	// PlatformErrors counts failed platform API calls by call.
	PlatformErrors Observer
	// EnforceLatency observes seconds spent enforcing by action.
	EnforceLatency Observer
	// InFlight tracks updates currently being handled.
	InFlight Observer
}

// New creates metrics backed by unregistered Prometheus collectors.
func New() *Metrics {
	return &Metrics{
		MessagesCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ezmod",
					Subsystem: "telegram",
					Name:      "messages_total",
					Help:      "Number of chat messages received.",
				},
				[]string{"kind"},
			),
		),
		CommandCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ezmod",
					Subsystem: "command",
					Name:      "invocations_total",
					Help:      "Number of commands handled, by command and outcome.",
				},
				[]string{"command", "outcome"},
			),
		),
		ViolationCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ezmod",
					Subsystem: "enforce",
					Name:      "violations_total",
					Help:      "Number of messages matching a chat's blocklist, by action.",
				},
				[]string{"action"},
			),
		),
		PlatformErrors: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ezmod",
					Subsystem: "platform",
					Name:      "errors_total",
					Help:      "Number of failed chat platform calls, by call.",
				},
				[]string{"call"},
			),
		),
		EnforceLatency: NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "ezmod",
					Subsystem: "enforce",
					Name:      "latency_seconds",
					Help:      "How long it takes to carry out an enforcement action.",
					Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"action"},
			),
		),
		InFlight: NewPromGauge(
			prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "ezmod",
					Subsystem: "telegram",
					Name:      "updates_in_flight",
					Help:      "Number of updates currently being handled.",
				},
			),
		),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesCount,
		m.CommandCount,
		m.ViolationCount,
		m.PlatformErrors,
		m.EnforceLatency,
		m.InFlight,
	}
}
