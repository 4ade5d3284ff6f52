package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// Returned by appointment writes that reference a missing account.
	ErrUnknownDoctor  = errors.New("referenced doctor does not exist")
	ErrUnknownPatient = errors.New("referenced patient does not exist")
)

// AppointmentQuery selects appointments; zero-valued fields are ignored.
// From/To bound appointment_time inclusively, After/Before strictly.
type AppointmentQuery struct {
	DoctorID    int64
	PatientID   int64
	From        time.Time
	To          time.Time
	After       time.Time
	Before      time.Time
	PatientName string
	DoctorName  string
}

// All repository interfaces in one file
type (
	AdminRepository interface {
		Create(ctx context.Context, admin *model.Admin) error
		GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id int64) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		// Delete removes the doctor together with all of its appointments.
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Doctor, error)
		Search(ctx context.Context, name, specialty string) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error)
	}

	AppointmentRepository interface {
		// Create and Update return ErrDuplicate when the doctor already has an
		// appointment at the same time.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, q AppointmentQuery) ([]*model.Appointment, error)
	}

	PrescriptionRepository interface {
		Save(ctx context.Context, prescription *model.Prescription) error
		ListByAppointment(ctx context.Context, appointmentID int64) ([]*model.Prescription, error)
	}

	// HealthChecker is implemented by stores that can report readiness.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)
