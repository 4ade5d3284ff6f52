package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/security"
)

// IdentityResolver maps a token subject onto a live account of the given role.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string, role model.Role) (*model.AccountRef, error)
}

type Service struct {
	tokens   auth.TokenService
	resolver IdentityResolver
	admins   repository.AdminRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
	metrics  *metrics.Metrics
}

func NewService(
	tokens auth.TokenService,
	resolver IdentityResolver,
	admins repository.AdminRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	hasher security.PasswordHasher,
	m *metrics.Metrics,
) *Service {
	return &Service{
		tokens:   tokens,
		resolver: resolver,
		admins:   admins,
		doctors:  doctors,
		patients: patients,
		hasher:   hasher,
		metrics:  m,
	}
}

// Authorize admits a request only when the token verifies, carries the
// required role and its subject still resolves to an account of that role.
// Every failure is reported as the same Unauthorized error.
func (s *Service) Authorize(ctx context.Context, token string, required model.Role) (*model.AccountRef, error) {
	ref, err := s.authorize(ctx, token, required)
	if err != nil {
		s.metrics.AuthorizationFailures.WithLabelValues(required.String()).Inc()
		log.Ctx(ctx).Debug().Err(err).Str("role", required.String()).Msg("authorization rejected")
		return nil, apperrors.Unauthorized(nil)
	}
	return ref, nil
}

func (s *Service) authorize(ctx context.Context, token string, required model.Role) (*model.AccountRef, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("missing token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != required {
		return nil, fmt.Errorf("token role %s does not match %s", claims.Role, required)
	}
	return s.resolver.Resolve(ctx, claims.Subject, required)
}

// EnsureAdmin creates the admin account unless one with username exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := s.admins.Create(ctx, &model.Admin{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

func (s *Service) LoginAdmin(ctx context.Context, req *model.AdminLoginRequest) (*model.TokenResponse, error) {
	var hash string
	admin, err := s.admins.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		hash = admin.PasswordHash
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewStorage("failed to load account", err)
	}
	return s.issue(hash, req.Password, req.Username, model.RoleAdmin)
}

func (s *Service) LoginDoctor(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	var hash string
	doctor, err := s.doctors.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		hash = doctor.PasswordHash
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewStorage("failed to load account", err)
	}
	return s.issue(hash, req.Password, req.Email, model.RoleDoctor)
}

func (s *Service) LoginPatient(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	var hash string
	patient, err := s.patients.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		hash = patient.PasswordHash
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewStorage("failed to load account", err)
	}
	return s.issue(hash, req.Password, req.Email, model.RolePatient)
}

// issue compares even when the account is missing (empty hash) so unknown
// and wrong-password logins take the same time.
func (s *Service) issue(hash, password, subject string, role model.Role) (*model.TokenResponse, error) {
	if err := s.hasher.Compare(hash, password); err != nil {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(subject, role)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to issue token: %w", err))
	}
	return &model.TokenResponse{
		Token:     token,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}
