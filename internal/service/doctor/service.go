package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/availability"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/security"
)

const msgDoctorExists = "Doctor already exists"

// IdentityCache drops cached account resolutions.
type IdentityCache interface {
	Forget(role model.Role, subject string)
}

type Service struct {
	repo       repository.DoctorRepository
	calculator *availability.Calculator
	hasher     security.PasswordHasher
	identities IdentityCache
	metrics    *metrics.Metrics
}

func NewService(
	repo repository.DoctorRepository,
	calculator *availability.Calculator,
	hasher security.PasswordHasher,
	identities IdentityCache,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:       repo,
		calculator: calculator,
		hasher:     hasher,
		identities: identities,
		metrics:    m,
	}
}

// List returns every doctor; a storage failure yields an empty, degraded result.
func (s *Service) List(ctx context.Context) model.Result[[]*model.Doctor] {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return s.degraded(ctx, "list_doctors", err)
	}
	return model.Ok(nonNil(doctors))
}

// Filter narrows the directory by name substring, specialty and, when set,
// whether the doctor offers any slot labelled AM or PM.
func (s *Service) Filter(ctx context.Context, filter model.DoctorFilter) model.Result[[]*model.Doctor] {
	doctors, err := s.repo.Search(ctx, filter.Name, filter.Specialty)
	if err != nil {
		return s.degraded(ctx, "filter_doctors", err)
	}
	if filter.AmPm == "" {
		return model.Ok(nonNil(doctors))
	}

	out := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		labels := []string(d.Availability)
		if len(availability.FilterByAmPm(labels, filter.AmPm)) > 0 {
			out = append(out, d)
		}
	}
	return model.Ok(out)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, apperrors.NewStorage("Error loading doctor", err)
	}
	return doctor, nil
}

// ParseDate reads a "YYYY-MM-DD" date in the clinic's location.
func (s *Service) ParseDate(v string) (time.Time, error) {
	return s.calculator.ParseDate(v)
}

// Availability lists the doctor's free slots on date. It does not check that
// the doctor exists.
func (s *Service) Availability(ctx context.Context, doctorID int64, date time.Time) model.Result[[]string] {
	res := s.calculator.AvailableSlots(ctx, doctorID, date)
	if res.Degraded {
		log.Ctx(ctx).Warn().Err(res.Err).Int64("doctor_id", doctorID).Msg("availability served degraded")
	}
	return res
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.NewConflict(msgDoctorExists, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStorage("Some internal error occurred", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid password", err)
	}

	doctor := &model.Doctor{
		Name:         req.Name,
		Specialty:    req.Specialty,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Availability: req.Availability,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgDoctorExists, err)
		}
		return nil, apperrors.NewStorage("Some internal error occurred", err)
	}
	return doctor, nil
}

// Update replaces the doctor's profile. An empty password keeps the old one.
func (s *Service) Update(ctx context.Context, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	existing, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	oldEmail := existing.Email

	existing.Name = req.Name
	existing.Specialty = req.Specialty
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.Availability = req.Availability
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, apperrors.NewBadRequest("invalid password", err)
		}
		existing.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("doctor", err)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict(msgDoctorExists, err)
		default:
			return nil, apperrors.NewStorage("Some internal error occurred", err)
		}
	}

	s.identities.Forget(model.RoleDoctor, oldEmail)
	return existing, nil
}

// Delete removes the doctor and every appointment referencing it. Tokens
// issued to the doctor stop resolving immediately.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("doctor", err)
		}
		return apperrors.NewStorage("Some internal error occurred", err)
	}

	s.identities.Forget(model.RoleDoctor, existing.Email)
	return nil
}

func (s *Service) degraded(ctx context.Context, op string, err error) model.Result[[]*model.Doctor] {
	s.metrics.DegradedReads.WithLabelValues(op).Inc()
	log.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("doctor directory served degraded")
	return model.Degraded([]*model.Doctor{}, err)
}

func nonNil(doctors []*model.Doctor) []*model.Doctor {
	if doctors == nil {
		return []*model.Doctor{}
	}
	return doctors
}
