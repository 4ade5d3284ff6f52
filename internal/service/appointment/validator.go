package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

// Outcome is the result of checking a candidate appointment.
type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeDoctorNotFound
	OutcomeSlotUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeDoctorNotFound:
		return "doctor_not_found"
	case OutcomeSlotUnavailable:
		return "slot_unavailable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SlotSource computes the free slots of a doctor's day.
type SlotSource interface {
	Compute(ctx context.Context, doctorID int64, date time.Time, exceptID int64) ([]string, error)
	SlotOf(t time.Time) string
	DayBounds(t time.Time) (time.Time, time.Time)
	Location() *time.Location
}

type Validator struct {
	doctors repository.DoctorRepository
	slots   SlotSource
}

func NewValidator(doctors repository.DoctorRepository, slots SlotSource) *Validator {
	return &Validator{doctors: doctors, slots: slots}
}

// Validate checks that the doctor exists and that the appointment's time of
// day is still free on its date. The appointment with apt.ID, if stored,
// does not count against itself. The returned error is non-nil only for
// storage failures.
func (v *Validator) Validate(ctx context.Context, apt *model.Appointment) (Outcome, error) {
	if _, err := v.doctors.Get(ctx, apt.DoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return OutcomeDoctorNotFound, nil
		}
		return OutcomeOk, fmt.Errorf("failed to load doctor: %w", err)
	}

	free, err := v.slots.Compute(ctx, apt.DoctorID, apt.AppointmentTime, apt.ID)
	if err != nil {
		return OutcomeOk, fmt.Errorf("failed to compute availability: %w", err)
	}

	// the grid only holds whole minutes
	if !apt.AppointmentTime.Truncate(time.Minute).Equal(apt.AppointmentTime) {
		return OutcomeSlotUnavailable, nil
	}
	want := v.slots.SlotOf(apt.AppointmentTime)
	for _, slot := range free {
		if slot == want {
			return OutcomeOk, nil
		}
	}
	return OutcomeSlotUnavailable, nil
}
