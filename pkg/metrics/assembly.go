package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AssemblyMetrics records document generation outcomes.
type AssemblyMetrics struct {
	duration *prometheus.HistogramVec
	pages    prometheus.Histogram
	success  prometheus.Counter
	failure  *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewAssemblyMetrics registers the assembly metrics on the provided registerer.
func NewAssemblyMetrics(reg prometheus.Registerer) *AssemblyMetrics {
	if reg == nil {
		return &AssemblyMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_assembly_duration_seconds",
		Help:    "Duration of document assembly runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})
	pages := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "document_assembly_pages",
		Help:    "Page counts of generated instruments.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_assembly_success_total",
		Help: "Successful document assemblies.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_assembly_failure_total",
		Help: "Failed document assemblies.",
	}, []string{"reason"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_assembly_retries_total",
		Help: "Document assembly retry attempts.",
	})
	reg.MustRegister(duration, pages, success, failure, retries)
	return &AssemblyMetrics{
		duration: duration,
		pages:    pages,
		success:  success,
		failure:  failure,
		retries:  retries,
	}
}

// ObserveSuccess records one completed assembly.
func (a *AssemblyMetrics) ObserveSuccess(family string, took time.Duration, pageCount int) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(family)).Observe(took.Seconds())
	a.pages.Observe(float64(pageCount))
	a.success.Inc()
}

// IncFailure records a failed assembly with the failure reason.
func (a *AssemblyMetrics) IncFailure(reason string) {
	if a == nil || a.failure == nil {
		return
	}
	a.failure.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncRetry records a scheduled retry.
func (a *AssemblyMetrics) IncRetry() {
	if a == nil || a.retries == nil {
		return
	}
	a.retries.Inc()
}
