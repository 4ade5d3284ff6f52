package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

const testSecret = "test-secret-key-that-is-long-enough-32"

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(Config{Secret: testSecret, Issuer: "clinic-scheduler"})
	require.NoError(t, err)
	return svc
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.Issue("jane@example.com", model.RolePatient)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), expiresAt, 2*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Subject)
	assert.Equal(t, model.RolePatient, claims.Role)
	assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	svc := newTestService(t)

	token, _, err := svc.WithClock(func() time.Time { return issuedAt }).Issue("doc@example.com", model.RoleDoctor)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestVerifyStillValidBeforeExpiry(t *testing.T) {
	issuedAt := time.Now()
	svc := newTestService(t)

	token, _, err := svc.Issue("doc@example.com", model.RoleDoctor)
	require.NoError(t, err)

	later := svc.WithClock(func() time.Time { return issuedAt.Add(6 * 24 * time.Hour) })
	_, err = later.Verify(token)
	assert.NoError(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other, err := NewJWTService(Config{Secret: "another-secret-key-that-is-long-enough"})
	require.NoError(t, err)
	token, _, err := other.Issue("admin", model.RoleAdmin)
	require.NoError(t, err)

	_, err = newTestService(t).Verify(token)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestVerifyRejectsMalformedAndUnsigned(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify("not-a-token")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "someone",
		"role": "nurse",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestService(t).Verify(raw)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestNewJWTServiceRejectsWeakSecret(t *testing.T) {
	_, err := NewJWTService(Config{Secret: "short"})
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestIssueRequiresSubjectAndRole(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Issue("", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrMissingClaims)
	_, _, err = svc.Issue("admin", model.Role(0))
	assert.ErrorIs(t, err, ErrMissingClaims)
}
