// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger traffic and license operations.
type Metrics struct {
	// Ledger round trips by method and outcome
	LedgerLatency *prometheus.HistogramVec

	// Verification outcomes: active, inactive, or an error kind
	VerificationOutcome *prometheus.CounterVec

	// Administrative transitions by action and outcome
	TransitionOutcome *prometheus.CounterVec

	// Submissions by outcome
	SubmissionOutcome *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LedgerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "licensechain_ledger_call_duration_seconds",
			Help:    "Duration of ledger gateway calls by method and outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "outcome"}),

		VerificationOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licensechain_verifications_total",
			Help: "Total verification requests by outcome",
		}, []string{"outcome"}),

		TransitionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licensechain_transitions_total",
			Help: "Total administrative transitions by action and outcome",
		}, []string{"action", "outcome"}),

		SubmissionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licensechain_submissions_total",
			Help: "Total license submissions by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveLedgerCall records one ledger round trip.
func (m *Metrics) ObserveLedgerCall(method, outcome string, d time.Duration) {
	if m != nil {
		m.LedgerLatency.WithLabelValues(method, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementVerification(outcome string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementTransition(action, outcome string) {
	if m != nil {
		m.TransitionOutcome.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.SubmissionOutcome.WithLabelValues(outcome).Inc()
	}
}
