package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("clinic", reg)

	m.AppointmentsBooked.Inc()
	m.BookingRejections.WithLabelValues("slot_unavailable").Add(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AppointmentsBooked))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BookingRejections.WithLabelValues("slot_unavailable")))

	// a second set on a fresh registry must not collide
	assert.NotPanics(t, func() { NewMetrics("clinic", prometheus.NewRegistry()) })
}
