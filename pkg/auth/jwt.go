package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// TokenTTL is the fixed validity of every issued token.
const TokenTTL = 7 * 24 * time.Hour

const minSecretLength = 32

var (
	ErrWeakSecret    = errors.New("jwt secret must be at least 32 bytes")
	ErrMissingClaims = errors.New("token is missing subject or role")
)

// Claims is the payload of an identity token.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenService interface {
	Issue(subject string, role model.Role) (string, time.Time, error)
	Verify(token string) (*Claims, error)
}

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// JWTService signs and verifies HS256 tokens with a key fixed at construction.
type JWTService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = TokenTTL
	}
	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)

	return &JWTService{
		key:    key,
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *JWTService) Issue(subject string, role model.Role) (string, time.Time, error) {
	if subject == "" || !role.Valid() {
		return "", time.Time{}, ErrMissingClaims
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry; every failure is reported as InvalidToken.
func (s *JWTService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}
	if !parsed.Valid {
		return nil, apperrors.NewInvalidToken(nil)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, apperrors.NewInvalidToken(ErrMissingClaims)
	}
	return claims, nil
}
