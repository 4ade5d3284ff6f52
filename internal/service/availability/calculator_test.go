package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/memory"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type failingAppointments struct {
	repository.AppointmentRepository
}

func (failingAppointments) List(context.Context, repository.AppointmentQuery) ([]*model.Appointment, error) {
	return nil, errors.New("connection refused")
}

func seed(t *testing.T) (*memory.Store, int64, int64) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	doctor := &model.Doctor{Name: "Dr. Grey", Email: "grey@clinic.test", Phone: "5550000001"}
	require.NoError(t, store.Doctors().Create(ctx, doctor))
	patient := &model.Patient{Name: "Jane Doe", Email: "jane@example.com", Phone: "5550000002"}
	require.NoError(t, store.Patients().Create(ctx, patient))
	return store, doctor.ID, patient.ID
}

func newCalculator(repo repository.AppointmentRepository) *Calculator {
	return NewCalculator(repo, nil, time.UTC, metrics.NewMetrics("test", prometheus.NewRegistry()))
}

func TestComputeSubtractsBookedSlots(t *testing.T) {
	store, doctorID, patientID := seed(t)
	ctx := context.Background()
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{
		day.Add(10 * time.Hour),
		day.Add(15 * time.Hour),
		day.AddDate(0, 0, 1).Add(9 * time.Hour), // next day
	} {
		require.NoError(t, store.Appointments().Create(ctx, &model.Appointment{
			DoctorID: doctorID, PatientID: patientID, AppointmentTime: at,
		}))
	}

	c := newCalculator(store.Appointments())
	slots, err := c.Compute(ctx, doctorID, day.Add(13*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00", "12:00", "13:00", "14:00", "16:00"}, slots)

	res := c.AvailableSlots(ctx, doctorID, day.AddDate(0, 0, 2))
	assert.False(t, res.Degraded)
	assert.Equal(t, DefaultGrid, res.Data)
}

func TestComputeIgnoresExcludedAppointment(t *testing.T) {
	store, doctorID, patientID := seed(t)
	ctx := context.Background()
	at := time.Date(2030, 3, 4, 11, 0, 0, 0, time.UTC)

	apt := &model.Appointment{DoctorID: doctorID, PatientID: patientID, AppointmentTime: at}
	require.NoError(t, store.Appointments().Create(ctx, apt))

	c := newCalculator(store.Appointments())
	slots, err := c.Compute(ctx, doctorID, at, apt.ID)
	require.NoError(t, err)
	assert.Contains(t, slots, "11:00")
}

func TestAvailableSlotsDegradesOnStorageFailure(t *testing.T) {
	c := newCalculator(failingAppointments{})

	res := c.AvailableSlots(context.Background(), 1, time.Now())
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Data)
	assert.Error(t, res.Err)
}

func TestDayBounds(t *testing.T) {
	c := newCalculator(nil)
	from, to := c.DayBounds(time.Date(2030, 3, 4, 17, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 4, to.Day())
	assert.Equal(t, 23, to.Hour())

	d, err := c.ParseDate("2030-03-04")
	require.NoError(t, err)
	assert.Equal(t, from, d)
}

func TestFilterByAmPm(t *testing.T) {
	labels := []string{"9AM", "11AM", "2PM", "4PM", "noon"}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"am", "AM", []string{"9AM", "11AM"}},
		{"pm lowercase filter", "pm", []string{"2PM", "4PM"}},
		{"empty", "", labels},
		{"unrecognised", "evening", labels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterByAmPm(labels, tt.filter))
		})
	}

	// label suffix is matched case-sensitively
	assert.Empty(t, FilterByAmPm([]string{"9am"}, "AM"))
}
