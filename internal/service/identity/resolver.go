package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type Config struct {
	// CacheTTL of zero disables caching.
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

// Resolver binds a token subject to a live account of a given role.
type Resolver struct {
	admins   repository.AdminRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	cache    *cache.Cache
	metrics  *metrics.Metrics
}

func NewResolver(
	admins repository.AdminRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	cfg Config,
	m *metrics.Metrics,
) *Resolver {
	r := &Resolver{
		admins:   admins,
		doctors:  doctors,
		patients: patients,
		metrics:  m,
	}
	if cfg.CacheTTL > 0 {
		cleanup := cfg.CleanupInterval
		if cleanup <= 0 {
			cleanup = time.Minute
		}
		r.cache = cache.New(cfg.CacheTTL, cleanup)
	}
	return r
}

func cacheKey(role model.Role, subject string) string {
	return role.String() + ":" + subject
}

// Resolve looks the subject up by the role's natural key: username for
// admins, email for doctors and patients.
func (r *Resolver) Resolve(ctx context.Context, subject string, role model.Role) (*model.AccountRef, error) {
	key := cacheKey(role, subject)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			r.metrics.IdentityCache.WithLabelValues("hit").Inc()
			ref := v.(model.AccountRef)
			return &ref, nil
		}
		r.metrics.IdentityCache.WithLabelValues("miss").Inc()
	}

	ref, err := r.lookup(ctx, subject, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("account", err)
		}
		return nil, apperrors.NewStorage("failed to resolve account", err)
	}

	if r.cache != nil {
		r.cache.Set(key, *ref, cache.DefaultExpiration)
	}
	return ref, nil
}

func (r *Resolver) lookup(ctx context.Context, subject string, role model.Role) (*model.AccountRef, error) {
	switch role {
	case model.RoleAdmin:
		admin, err := r.admins.GetByUsername(ctx, subject)
		if err != nil {
			return nil, err
		}
		return &model.AccountRef{ID: admin.ID, Role: role, NaturalKey: admin.Username, Name: admin.Username}, nil
	case model.RoleDoctor:
		doctor, err := r.doctors.GetByEmail(ctx, subject)
		if err != nil {
			return nil, err
		}
		return &model.AccountRef{ID: doctor.ID, Role: role, NaturalKey: doctor.Email, Name: doctor.Name}, nil
	case model.RolePatient:
		patient, err := r.patients.GetByEmail(ctx, subject)
		if err != nil {
			return nil, err
		}
		return &model.AccountRef{ID: patient.ID, Role: role, NaturalKey: patient.Email, Name: patient.Name}, nil
	default:
		return nil, fmt.Errorf("%w: %v", repository.ErrNotFound, role)
	}
}

// Forget drops a cached resolution so a deleted or renamed account stops
// resolving immediately.
func (r *Resolver) Forget(role model.Role, subject string) {
	if r.cache != nil {
		r.cache.Delete(cacheKey(role, subject))
	}
}
