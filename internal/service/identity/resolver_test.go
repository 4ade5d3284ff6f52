package identity

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

func newResolver(t *testing.T, ttl time.Duration) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Admins().Create(ctx, &model.Admin{Username: "root"}))
	require.NoError(t, store.Doctors().Create(ctx, &model.Doctor{Name: "Dr. Grey", Email: "grey@clinic.test", Phone: "5550000001"}))
	require.NoError(t, store.Patients().Create(ctx, &model.Patient{Name: "Jane Doe", Email: "jane@example.com", Phone: "5550000002"}))

	r := NewResolver(store.Admins(), store.Doctors(), store.Patients(),
		Config{CacheTTL: ttl}, metrics.NewMetrics("test", prometheus.NewRegistry()))
	return r, store
}

func TestResolveByNaturalKey(t *testing.T) {
	r, _ := newResolver(t, 0)
	ctx := context.Background()

	admin, err := r.Resolve(ctx, "root", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	doctor, err := r.Resolve(ctx, "grey@clinic.test", model.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Grey", doctor.Name)

	patient, err := r.Resolve(ctx, "jane@example.com", model.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", patient.NaturalKey)
}

func TestResolveWrongRoleIsNotFound(t *testing.T) {
	r, _ := newResolver(t, 0)

	// a patient email does not resolve as a doctor
	_, err := r.Resolve(context.Background(), "jane@example.com", model.RoleDoctor)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = r.Resolve(context.Background(), "root", model.Role(0))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestForgetRevokesCachedAccount(t *testing.T) {
	r, store := newResolver(t, time.Minute)
	ctx := context.Background()

	doctor, err := r.Resolve(ctx, "grey@clinic.test", model.RoleDoctor)
	require.NoError(t, err)
	require.NoError(t, store.Doctors().Delete(ctx, doctor.ID))

	// still cached until forgotten
	_, err = r.Resolve(ctx, "grey@clinic.test", model.RoleDoctor)
	require.NoError(t, err)

	r.Forget(model.RoleDoctor, "grey@clinic.test")
	_, err = r.Resolve(ctx, "grey@clinic.test", model.RoleDoctor)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
