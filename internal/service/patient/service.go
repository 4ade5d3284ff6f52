package patient

import (
	"context"
	"errors"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/security"
)

const msgPatientExists = "Patient with email id or phone no already exist"

type PatientService interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.Patient, error)
	Get(ctx context.Context, id int64) (*model.Patient, error)
}

type Service struct {
	repo   repository.PatientRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.PatientRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Signup registers a patient; email and phone must both be unused.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.Patient, error) {
	if _, err := s.repo.FindByEmailOrPhone(ctx, req.Email, req.Phone); err == nil {
		return nil, apperrors.NewConflict(msgPatientExists, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStorage("Internal server error", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid password", err)
	}

	patient := &model.Patient{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgPatientExists, err)
		}
		return nil, apperrors.NewStorage("Internal server error", err)
	}
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("patient", err)
		}
		return nil, apperrors.NewStorage("Internal server error", err)
	}
	return patient, nil
}
