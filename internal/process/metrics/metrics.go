package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the process lifecycle engine.
type Metrics struct {
	// Cases created, by initial status code
	ProcessCreated *prometheus.CounterVec

	// Status transitions applied, by from/to code
	StatusTransition *prometheus.CounterVec

	// Transitions rejected by the table
	TransitionRejected prometheus.Counter

	// Checklist entries generated
	ChecklistGenerated prometheus.Counter

	// Bulk status items, by outcome
	BulkItems *prometheus.CounterVec

	// Engine operation latency by operation name
	OperationLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		ProcessCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramita_processes_created_total",
			Help: "Total cases created, by initial status code",
		}, []string{"status"}),

		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramita_status_transitions_total",
			Help: "Total status transitions applied, by from and to code",
		}, []string{"from", "to"}),

		TransitionRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tramita_status_transitions_rejected_total",
			Help: "Total status changes rejected by the transition table",
		}),

		ChecklistGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tramita_checklist_entries_generated_total",
			Help: "Total checklist entries generated from templates",
		}),

		BulkItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramita_bulk_status_items_total",
			Help: "Total bulk status update items, by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tramita_engine_operation_duration_seconds",
			Help:    "Duration of engine operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncrementCreated records a created case.
func (m *Metrics) IncrementCreated(status string) {
	if m != nil {
		m.ProcessCreated.WithLabelValues(status).Inc()
	}
}

// IncrementTransition records an applied status transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.StatusTransition.WithLabelValues(from, to).Inc()
	}
}

// IncrementRejected records a rejected status transition.
func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.TransitionRejected.Inc()
	}
}

// AddChecklistGenerated records generated checklist entries.
func (m *Metrics) AddChecklistGenerated(n int) {
	if m != nil {
		m.ChecklistGenerated.Add(float64(n))
	}
}

// IncrementBulkItem records a bulk item outcome.
func (m *Metrics) IncrementBulkItem(outcome string) {
	if m != nil {
		m.BulkItems.WithLabelValues(outcome).Inc()
	}
}

// ObserveOperation records the duration of an engine operation.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
