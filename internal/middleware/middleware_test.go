package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type stubAuthorizer struct {
	token string
	role  model.Role
	calls int
}

func (s *stubAuthorizer) Authorize(ctx context.Context, token string, role model.Role) (*model.AccountRef, error) {
	s.calls++
	if token != s.token || role != s.role {
		return nil, apperrors.Unauthorized(nil)
	}
	return &model.AccountRef{ID: 7, Role: role, NaturalKey: "jane@example.com"}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), tt.header)
	}
}

func TestRequire(t *testing.T) {
	authz := &stubAuthorizer{token: "good", role: model.RolePatient}
	r := gin.New()
	r.GET("/me", NewAuthMiddleware(authz).Require(model.RolePatient), func(c *gin.Context) {
		account, ok := Account(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": account.ID})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	var bodies []string
	for _, header := range []string{"", "Bearer bad", "Token good"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
	assert.JSONEq(t, `{"status":"error","message":"Invalid or expired token"}`, bodies[0])
}

func TestRequireQueryRole(t *testing.T) {
	authz := &stubAuthorizer{token: "good", role: model.RoleDoctor}
	r := gin.New()
	r.GET("/slots", NewAuthMiddleware(authz).RequireQueryRole("role", model.RoleDoctor, model.RolePatient),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		query string
		want  int
	}{
		{"role=doctor", http.StatusOK},
		{"role=patient", http.StatusUnauthorized},
		{"role=admin", http.StatusUnauthorized},
		{"role=nurse", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/slots?"+tt.query, nil)
		req.Header.Set("Authorization", "Bearer good")
		assert.Equal(t, tt.want, serve(r, req).Code, tt.query)
	}
	// admin is never consulted because it is not an allowed role
	assert.Equal(t, 2, authz.calls)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 2, TTL: time.Minute})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{AllowOrigins: []string{"https://dash.clinic.test"}, MaxAge: 600}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://dash.clinic.test")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.clinic.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Second))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	const rid = "8f14e45f-ceea-467f-a0e6-5a6b7b0f4c21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, rid)
	assert.Equal(t, rid, serve(r, req).Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "not-a-uuid")
	got := serve(r, req).Header().Get(HeaderXRequestID)
	assert.NotEqual(t, "not-a-uuid", got)
	assert.Len(t, got, 36)
}
