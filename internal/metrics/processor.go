package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saikiran76/SwipeAI/internal/common"
)

type ProcessorMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	fallbackTotal   *prometheus.CounterVec
	itemsExtracted  *prometheus.HistogramVec
	queueLag        prometheus.Histogram
}

func NewProcessorMetrics(service string) *ProcessorMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swipe",
			Subsystem: "extract",
			Name:      "documents_total",
			Help:      "Processed documents by method and outcome code.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"method", "outcome"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swipe",
			Subsystem: "extract",
			Name:      "document_duration_seconds",
			Help:      "Document processing duration in seconds by method.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"method"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "swipe",
			Subsystem: "extract",
			Name:      "documents_in_flight",
			Help:      "Number of documents being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swipe",
			Subsystem: "extract",
			Name:      "fallbacks_total",
			Help:      "Method fallbacks taken after a failed attempt.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"from", "to"},
	)
	itemsExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swipe",
			Subsystem: "extract",
			Name:      "line_items",
			Help:      "Line items per successfully processed document.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"method"},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "swipe",
			Subsystem: "queue",
			Name:      "lag_seconds",
			Help:      "Delay between a file being queued and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, fallbackTotal, itemsExtracted, queueLag)

	return &ProcessorMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		fallbackTotal:   fallbackTotal,
		itemsExtracted:  itemsExtracted,
		queueLag:        queueLag,
	}
}

func (m *ProcessorMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests and extra collectors.
func (m *ProcessorMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ProcessorMetrics) StartDocument() {
	m.processInFlight.Inc()
}

// FinishDocument records one outcome. The outcome label is "ok" or the
// error taxonomy code.
func (m *ProcessorMetrics) FinishDocument(method string, duration time.Duration, items int, err error) {
	m.processInFlight.Dec()

	outcome := "ok"
	if err != nil {
		outcome = common.ErrorKind(err)
	}
	m.processTotal.WithLabelValues(method, outcome).Inc()
	m.processDuration.WithLabelValues(method).Observe(duration.Seconds())
	if err == nil {
		m.itemsExtracted.WithLabelValues(method).Observe(float64(items))
	}
}

func (m *ProcessorMetrics) Fallback(from, to string) {
	m.fallbackTotal.WithLabelValues(from, to).Inc()
}

func (m *ProcessorMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
