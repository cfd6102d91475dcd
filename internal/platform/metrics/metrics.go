package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Disclosure outcomes.
const (
	OutcomeDisclosed = "disclosed"
	OutcomeRevoked   = "revoked"
	OutcomeNotFound  = "not_found"
)

// Metrics holds the application level Prometheus metrics.
type Metrics struct {
	CredentialsIssued  prometheus.Counter
	CredentialsRevoked prometheus.Counter
	Disclosures        *prometheus.CounterVec
	ProofsGenerated    *prometheus.CounterVec
	UsersCreated       prometheus.Counter
	StoreLatency       *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcdemo_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		CredentialsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcdemo_credentials_revoked_total",
			Help: "Total number of successful revocations",
		}),
		Disclosures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcdemo_disclosures_total",
			Help: "Selective disclosure requests, labeled by outcome",
		}, []string{"outcome"}),
		ProofsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcdemo_proofs_generated_total",
			Help: "Mock proofs generated, labeled by proof type and verification status",
		}, []string{"type", "status"}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcdemo_users_created_total",
			Help: "Total number of users registered",
		}),
		StoreLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcdemo_store_operation_seconds",
			Help:    "Latency of credential store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// IncrementCredentialsIssued increments the issued counter by 1.
func (m *Metrics) IncrementCredentialsIssued() {
	m.CredentialsIssued.Inc()
}

// IncrementCredentialsRevoked increments the revoked counter by 1.
func (m *Metrics) IncrementCredentialsRevoked() {
	m.CredentialsRevoked.Inc()
}

// IncrementDisclosures counts a disclosure request by outcome.
func (m *Metrics) IncrementDisclosures(outcome string) {
	m.Disclosures.WithLabelValues(outcome).Inc()
}

// IncrementProofsGenerated counts a generated proof.
func (m *Metrics) IncrementProofsGenerated(proofType string, verified bool) {
	status := "unverified"
	if verified {
		status = "verified"
	}
	m.ProofsGenerated.WithLabelValues(proofType, status).Inc()
}

// IncrementUsersCreated increments the users counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

// ObserveStoreLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreLatency(operation string, durationSeconds float64) {
	m.StoreLatency.WithLabelValues(operation).Observe(durationSeconds)
}
