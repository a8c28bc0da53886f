package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "purifygate"

// Registry holds every purifygate collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	EntriesProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_processed_total",
		Help:      "Entries that went through the processor chain.",
	})

	EntriesBypassed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_bypassed_total",
		Help:      "Entries forwarded without processing because the buffer was nearly full.",
	})

	EntriesDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_dropped_total",
		Help:      "Entries dropped, by reason.",
	}, []string{"reason"})

	Matches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_total",
		Help:      "Banned word matches found, by processor.",
	}, []string{"processor"})

	OutputErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "output_errors_total",
		Help:      "Failed output batch writes.",
	})

	Words = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "banned_words",
		Help:      "Distinct banned words currently loaded.",
	})

	Reloads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reloads_total",
		Help:      "Control plane reloads, by source and result.",
	}, []string{"source", "result"})
)

// Drop reasons.
const (
	ReasonBlocked    = "blocked"
	ReasonError      = "error"
	ReasonBufferFull = "buffer_full"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RegisterBuffer exposes a buffer's fill level and capacity.
func RegisterBuffer(usage, capacity func() float64) {
	Registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_usage",
			Help:      "Entries waiting in the ring buffer.",
		}, usage),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_capacity",
			Help:      "Ring buffer capacity.",
		}, capacity),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
