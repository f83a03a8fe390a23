package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStatement("waived", "accepted", time.Now())
		m.AddOrphanedStatements(2)
		m.ObserveTransition("waive", "satisfied", time.Now())
		m.IncCompanionRequest("create_registration", "ok")
		m.IncCourseCache("hit")
		m.IncRegistrationsCreated()
	})
}

func TestCountersRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStatement("waived", "accepted", time.Now())
	m.ObserveStatement("waived", "accepted", time.Now())
	m.AddOrphanedStatements(3)
	m.AddOrphanedStatements(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatementsSubmitted.WithLabelValues("waived", "accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OrphanedStatements))
}
