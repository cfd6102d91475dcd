package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementCredentialsIssued()
	m.IncrementCredentialsIssued()
	m.IncrementCredentialsRevoked()
	m.IncrementDisclosures(OutcomeDisclosed)
	m.IncrementDisclosures(OutcomeRevoked)
	m.IncrementProofsGenerated("AgeVerification", true)
	m.IncrementProofsGenerated("WealthVerification", false)
	m.IncrementUsersCreated()
	m.ObserveStoreLatency("create", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CredentialsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CredentialsRevoked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Disclosures.WithLabelValues(OutcomeRevoked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofsGenerated.WithLabelValues("AgeVerification", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofsGenerated.WithLabelValues("WealthVerification", "unverified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreLatency))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
