package availability

import (
	"context"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// DefaultGrid is the clinic's daily slot grid, in "HH:MM" order.
var DefaultGrid = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

type Calculator struct {
	appointments repository.AppointmentRepository
	grid         []string
	loc          *time.Location
	metrics      *metrics.Metrics
}

// NewCalculator uses DefaultGrid when grid is empty and time.Local when loc is nil.
func NewCalculator(appointments repository.AppointmentRepository, grid []string, loc *time.Location, m *metrics.Metrics) *Calculator {
	if len(grid) == 0 {
		grid = DefaultGrid
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{
		appointments: appointments,
		grid:         append([]string(nil), grid...),
		loc:          loc,
		metrics:      m,
	}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

func (c *Calculator) Grid() []string {
	return append([]string(nil), c.grid...)
}

// ParseDate reads a "YYYY-MM-DD" date in the clinic's location.
func (c *Calculator) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, s, c.loc)
}

// DayBounds returns the first and last instant of the calendar day containing t.
func (c *Calculator) DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SlotOf is the grid label an appointment time occupies.
func (c *Calculator) SlotOf(t time.Time) string {
	return t.In(c.loc).Format(model.TimeOfDayLayout)
}

// Compute returns the grid slots of date not taken by any of the doctor's
// appointments that day, in grid order. An appointment with id exceptID is
// treated as free.
func (c *Calculator) Compute(ctx context.Context, doctorID int64, date time.Time, exceptID int64) ([]string, error) {
	from, to := c.DayBounds(date)
	booked, err := c.appointments.List(ctx, repository.AppointmentQuery{
		DoctorID: doctorID,
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(booked))
	for _, apt := range booked {
		if exceptID != 0 && apt.ID == exceptID {
			continue
		}
		taken[c.SlotOf(apt.AppointmentTime)] = struct{}{}
	}

	free := make([]string, 0, len(c.grid))
	for _, slot := range c.grid {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free, nil
}

// AvailableSlots is Compute for read paths: a storage failure yields an empty
// list flagged as degraded instead of an error.
func (c *Calculator) AvailableSlots(ctx context.Context, doctorID int64, date time.Time) model.Result[[]string] {
	slots, err := c.Compute(ctx, doctorID, date, 0)
	if err != nil {
		c.metrics.DegradedReads.WithLabelValues("available_slots").Inc()
		return model.Degraded([]string{}, err)
	}
	return model.Ok(slots)
}

// FilterByAmPm keeps labels ending in "AM" or "PM" (case-sensitive), chosen
// by amPm case-insensitively. Any other amPm, empty included, returns labels
// unchanged.
func FilterByAmPm(labels []string, amPm string) []string {
	suffix := strings.ToUpper(strings.TrimSpace(amPm))
	if suffix != "AM" && suffix != "PM" {
		return labels
	}

	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if strings.HasSuffix(label, suffix) {
			out = append(out, label)
		}
	}
	return out
}
