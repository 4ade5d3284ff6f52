package prescription

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// Service stores prescriptions written by the doctor of the appointment.
type Service struct {
	repo         repository.PrescriptionRepository
	appointments repository.AppointmentRepository
	now          func() time.Time
}

func NewService(repo repository.PrescriptionRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{repo: repo, appointments: appointments, now: time.Now}
}

func (s *Service) Save(ctx context.Context, doctorID int64, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if err := s.authorize(ctx, doctorID, req.AppointmentID); err != nil {
		return nil, err
	}

	p := &model.Prescription{
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, apperrors.NewStorage("Failed to save prescription", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, doctorID, appointmentID int64) ([]*model.Prescription, error) {
	if err := s.authorize(ctx, doctorID, appointmentID); err != nil {
		return nil, err
	}

	out, err := s.repo.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.NewStorage("Failed to retrieve prescription", err)
	}
	if out == nil {
		out = []*model.Prescription{}
	}
	return out, nil
}

// authorize requires the appointment to exist and belong to doctorID.
func (s *Service) authorize(ctx context.Context, doctorID, appointmentID int64) error {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("appointment", err)
		}
		return apperrors.NewStorage("Error loading appointment", err)
	}
	if apt.DoctorID != doctorID {
		return apperrors.NewForbidden("appointment belongs to another doctor", nil)
	}
	return nil
}
