package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

const (
	EventBooked    = "appointment.booked"
	EventUpdated   = "appointment.updated"
	EventCancelled = "appointment.cancelled"
)

// Event is the payload published after every committed transition.
type Event struct {
	AppointmentID   int64                   `json:"appointment_id"`
	DoctorID        int64                   `json:"doctor_id"`
	PatientID       int64                   `json:"patient_id"`
	AppointmentTime time.Time               `json:"appointment_time"`
	Status          model.AppointmentStatus `json:"status"`
}

func newEvent(apt *model.Appointment) Event {
	return Event{
		AppointmentID:   apt.ID,
		DoctorID:        apt.DoctorID,
		PatientID:       apt.PatientID,
		AppointmentTime: apt.AppointmentTime,
		Status:          apt.Status,
	}
}

type Options struct {
	// RevalidateOnUpdate runs the slot check again before an update is
	// persisted. Off by default: updates overwrite unconditionally.
	RevalidateOnUpdate bool
}

type Service struct {
	repo      repository.AppointmentRepository
	validator *Validator
	slots     SlotSource
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	locks     *doctorLocks
	opts      Options
	now       func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	validator *Validator,
	slots SlotSource,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	opts Options,
) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		slots:     slots,
		publisher: publisher,
		metrics:   m,
		locks:     newDoctorLocks(),
		opts:      opts,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Book persists an appointment that the caller has already validated.
func (s *Service) Book(ctx context.Context, apt *model.Appointment) error {
	s.localize(apt)
	apt.Status = model.AppointmentStatusScheduled
	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.BookingRejections.WithLabelValues(OutcomeSlotUnavailable.String()).Inc()
			return apperrors.NewSlotUnavailable(err)
		}
		if refErr := referenceError(err); refErr != nil {
			return refErr
		}
		return apperrors.NewStorage("Error saving appointment", err)
	}

	s.metrics.AppointmentsBooked.Inc()
	s.publish(ctx, EventBooked, apt)
	return nil
}

// ValidateAndBook checks and commits a new appointment while holding the
// doctor's lock, so two requests for the same slot cannot both succeed.
func (s *Service) ValidateAndBook(ctx context.Context, apt *model.Appointment) error {
	if apt.DoctorID == 0 || apt.PatientID == 0 {
		return apperrors.NewBadRequest("doctor and patient are required", nil)
	}
	if !apt.AppointmentTime.After(s.now()) {
		return apperrors.NewBadRequest("Appointment time must be in the future", nil)
	}
	apt.ID = 0
	s.localize(apt)

	unlock := s.locks.Lock(apt.DoctorID)
	defer unlock()

	if err := s.check(ctx, apt); err != nil {
		return err
	}
	return s.Book(ctx, apt)
}

func (s *Service) check(ctx context.Context, apt *model.Appointment) error {
	outcome, err := s.validator.Validate(ctx, apt)
	if err != nil {
		return apperrors.NewStorage("Error validating appointment", err)
	}

	switch outcome {
	case OutcomeOk:
		return nil
	case OutcomeDoctorNotFound:
		s.metrics.BookingRejections.WithLabelValues(outcome.String()).Inc()
		return apperrors.NewDoctorNotFound(nil)
	case OutcomeSlotUnavailable:
		s.metrics.BookingRejections.WithLabelValues(outcome.String()).Inc()
		return apperrors.NewSlotUnavailable(nil)
	default:
		return apperrors.NewInternal(nil)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewStorage("Error loading appointment", err)
	}
	s.localize(apt)
	return apt, nil
}

// Update overwrites time, status, doctor and patient of a stored appointment.
func (s *Service) Update(ctx context.Context, apt *model.Appointment) error {
	existing, err := s.Get(ctx, apt.ID)
	if err != nil {
		return err
	}
	return s.update(ctx, existing, apt)
}

// UpdateOwned is Update restricted to the appointment's own patient. The
// patient reference cannot be moved to another account this way.
func (s *Service) UpdateOwned(ctx context.Context, apt *model.Appointment, patientID int64) error {
	existing, err := s.Get(ctx, apt.ID)
	if err != nil {
		return err
	}
	if existing.PatientID != patientID {
		return apperrors.NewForbidden("Unauthorized to update this appointment", nil)
	}
	apt.PatientID = patientID
	return s.update(ctx, existing, apt)
}

func (s *Service) update(ctx context.Context, existing, apt *model.Appointment) error {
	if !apt.Status.Valid() {
		return apperrors.NewBadRequest("invalid appointment status", nil)
	}

	existing.AppointmentTime = apt.AppointmentTime.In(s.slots.Location())
	existing.Status = apt.Status
	existing.DoctorID = apt.DoctorID
	existing.PatientID = apt.PatientID

	if s.opts.RevalidateOnUpdate {
		unlock := s.locks.Lock(existing.DoctorID)
		defer unlock()
		if err := s.check(ctx, existing); err != nil {
			return err
		}
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("appointment", err)
		case errors.Is(err, repository.ErrDuplicate):
			return apperrors.NewSlotUnavailable(err)
		case referenceError(err) != nil:
			return referenceError(err)
		default:
			return apperrors.NewStorage("Error updating appointment", err)
		}
	}

	*apt = *existing
	s.metrics.AppointmentsUpdated.Inc()
	s.publish(ctx, EventUpdated, existing)
	return nil
}

// Cancel deletes the appointment if requester is its patient.
func (s *Service) Cancel(ctx context.Context, id, requesterID int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.PatientID != requesterID {
		return apperrors.NewForbidden("Unauthorized to cancel this appointment", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("appointment", err)
		}
		return apperrors.NewStorage("Error cancelling appointment", err)
	}

	s.metrics.AppointmentsCancelled.Inc()
	s.publish(ctx, EventCancelled, existing)
	return nil
}

// ListForDoctor returns the doctor's appointments on date, optionally
// narrowed to patients whose name contains patientName. A storage failure
// yields an empty, degraded result.
func (s *Service) ListForDoctor(ctx context.Context, doctorID int64, date time.Time, patientName string) model.Result[[]*model.Appointment] {
	from, to := s.slots.DayBounds(date)
	apts, err := s.repo.List(ctx, repository.AppointmentQuery{
		DoctorID:    doctorID,
		From:        from,
		To:          to,
		PatientName: patientName,
	})
	if err != nil {
		s.metrics.DegradedReads.WithLabelValues("appointments_for_doctor").Inc()
		log.Ctx(ctx).Warn().Err(err).Int64("doctor_id", doctorID).Msg("listing doctor appointments failed")
		return model.Degraded([]*model.Appointment{}, err)
	}
	if apts == nil {
		apts = []*model.Appointment{}
	}
	s.localize(apts...)
	return model.Ok(apts)
}

// ListForPatient returns the patient's history, optionally limited to past or
// future appointments and to doctors whose name contains the filter.
func (s *Service) ListForPatient(ctx context.Context, patientID int64, filters model.PatientAppointmentFilters) ([]*model.Appointment, error) {
	q := repository.AppointmentQuery{
		PatientID:  patientID,
		DoctorName: filters.DoctorName,
	}
	switch filters.Condition {
	case model.ConditionAny:
	case model.ConditionPast:
		q.Before = s.now()
	case model.ConditionFuture:
		q.After = s.now()
	default:
		return nil, apperrors.NewBadRequest("condition must be past or future", nil)
	}

	apts, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, apperrors.NewStorage("Error loading appointments", err)
	}
	if apts == nil {
		apts = []*model.Appointment{}
	}
	s.localize(apts...)
	return apts, nil
}

// localize expresses appointment times in the clinic location, the one slots
// are computed in, so the derived date and time match the booked slot.
func (s *Service) localize(apts ...*model.Appointment) {
	loc := s.slots.Location()
	for _, apt := range apts {
		apt.AppointmentTime = apt.AppointmentTime.In(loc)
	}
}

// publish never fails the transition; the write has already committed.
func (s *Service) publish(ctx context.Context, eventType string, apt *model.Appointment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, newEvent(apt)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event_type", eventType).Int64("appointment_id", apt.ID).Msg("failed to publish appointment event")
	}
}

// referenceError reports a write that pointed at a missing doctor or patient,
// or nil for any other error.
func referenceError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUnknownDoctor):
		return apperrors.NewDoctorNotFound(err)
	case errors.Is(err, repository.ErrUnknownPatient):
		return apperrors.NewBadRequest("Patient does not exist", err)
	default:
		return nil
	}
}
