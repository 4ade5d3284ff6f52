package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appointmentHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/doctor"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/patient"
	prescriptionHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prescription"
	prometheusHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/memory"
	"github.com/jwalitptl/clinic-scheduler/internal/router"
	appointmentService "github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-scheduler/internal/service/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/service/availability"
	doctorService "github.com/jwalitptl/clinic-scheduler/internal/service/doctor"
	"github.com/jwalitptl/clinic-scheduler/internal/service/identity"
	patientService "github.com/jwalitptl/clinic-scheduler/internal/service/patient"
	prescriptionService "github.com/jwalitptl/clinic-scheduler/internal/service/prescription"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/security"
)

const (
	testSecret    = "router-test-secret-0123456789abcdef"
	adminPassword = "admin-pass-123"
)

type Response struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Degraded bool            `json:"degraded"`
	Code     int             `json:"-"`
}

func (r Response) IsSuccess() bool {
	return r.Status == "success"
}

func (r Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

type testServer struct {
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", registry)

	tokens, err := auth.NewJWTService(auth.Config{Secret: testSecret, Issuer: "test"})
	require.NoError(t, err)
	hasher := security.NewBcryptHasher(4)

	resolver := identity.NewResolver(store.Admins(), store.Doctors(), store.Patients(), identity.Config{CacheTTL: time.Minute}, m)
	authSvc := authService.NewService(tokens, resolver, store.Admins(), store.Doctors(), store.Patients(), hasher, m)
	_, err = authSvc.EnsureAdmin(context.Background(), "admin", adminPassword)
	require.NoError(t, err)

	calc := availability.NewCalculator(store.Appointments(), nil, time.UTC, m)
	appointmentSvc := appointmentService.NewService(store.Appointments(),
		appointmentService.NewValidator(store.Doctors(), calc), calc, messaging.LogPublisher{}, m, appointmentService.Options{})
	authMW := middleware.NewAuthMiddleware(authSvc)

	r, err := router.NewRouter(
		router.RouterConfig{RequestTimeout: 5 * time.Second},
		m,
		prometheusHandler.New(registry),
		health.NewHandler(map[string]repository.HealthChecker{"memory": store}),
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorService.NewService(store.Doctors(), calc, hasher, resolver, m), authMW),
		patientHandler.NewHandler(patientService.NewService(store.Patients(), hasher), appointmentSvc, authMW),
		appointmentHandler.NewHandler(appointmentSvc, calc, authMW),
		prescriptionHandler.NewHandler(prescriptionService.NewService(store.Prescriptions(), store.Appointments()), authMW),
	)
	require.NoError(t, err)

	return &testServer{engine: r.Setup()}
}

func (s *testServer) makeRequest(t *testing.T, method, path string, body interface{}, token string) Response {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	resp := Response{Code: w.Code}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp
}

func (s *testServer) login(t *testing.T, path string, body map[string]string) string {
	t.Helper()
	resp := s.makeRequest(t, http.MethodPost, "/api/v1"+path, body, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)

	var token struct {
		Token string `json:"token"`
	}
	resp.Decode(t, &token)
	require.NotEmpty(t, token.Token)
	return token.Token
}

func (s *testServer) signup(t *testing.T, name, email, phone string) string {
	t.Helper()
	resp := s.makeRequest(t, http.MethodPost, "/api/v1/patients/signup", map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"address":  "1 Main St",
		"password": "patient-pass",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	return s.login(t, "/patients/login", map[string]string{"email": email, "password": "patient-pass"})
}

func TestSchedulingFlow(t *testing.T) {
	s := newTestServer(t)

	adminToken := s.login(t, "/admin/login", map[string]string{"username": "admin", "password": adminPassword})

	// Admin adds a doctor
	createResp := s.makeRequest(t, http.MethodPost, "/api/v1/doctors", map[string]interface{}{
		"name":         "Dr. Meredith Grey",
		"specialty":    "Surgery",
		"email":        "grey@clinic.test",
		"phone":        "5550000001",
		"password":     "doctor-pass",
		"availability": []string{"9AM", "10AM", "2PM"},
	}, adminToken)
	require.Equal(t, http.StatusCreated, createResp.Code, createResp.Message)
	var doctor struct {
		ID int64 `json:"id"`
	}
	createResp.Decode(t, &doctor)

	dup := s.makeRequest(t, http.MethodPost, "/api/v1/doctors", map[string]interface{}{
		"name": "Dr. Copy", "specialty": "Surgery", "email": "grey@clinic.test",
		"phone": "5550000009", "password": "doctor-pass",
	}, adminToken)
	assert.Equal(t, http.StatusConflict, dup.Code)

	janeToken := s.signup(t, "Jane Doe", "jane@example.com", "5550000002")
	johnToken := s.signup(t, "John Roe", "john@example.com", "5550000003")
	doctorToken := s.login(t, "/doctors/login", map[string]string{"email": "grey@clinic.test", "password": "doctor-pass"})

	day := time.Now().UTC().AddDate(0, 0, 2)
	date := day.Format("2006-01-02")
	slot := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)

	// Booking
	book := s.makeRequest(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id":        doctor.ID,
		"appointment_time": slot,
	}, janeToken)
	require.Equal(t, http.StatusCreated, book.Code, book.Message)
	assert.Equal(t, "Appointment booked successfully", book.Message)
	var booked struct {
		ID      int64     `json:"id"`
		EndTime time.Time `json:"end_time"`
		Time    string    `json:"time"`
	}
	book.Decode(t, &booked)
	assert.Equal(t, "10:00", booked.Time)
	assert.True(t, slot.Add(time.Hour).Equal(booked.EndTime))

	taken := s.makeRequest(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id":        doctor.ID,
		"appointment_time": slot,
	}, johnToken)
	assert.Equal(t, http.StatusConflict, taken.Code)
	assert.Equal(t, "Appointment time not available", taken.Message)

	unknown := s.makeRequest(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id":        doctor.ID + 100,
		"appointment_time": slot,
	}, johnToken)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "Doctor does not exist", unknown.Message)

	// Availability
	avail := s.makeRequest(t, http.MethodGet,
		fmt.Sprintf("/api/v1/doctors/%d/availability?date=%s&role=patient", doctor.ID, date), nil, johnToken)
	require.Equal(t, http.StatusOK, avail.Code, avail.Message)
	var slots []string
	avail.Decode(t, &slots)
	assert.NotContains(t, slots, "10:00")
	assert.Len(t, slots, len(availability.DefaultGrid)-1)

	// A booking sent with another offset reports the clinic slot it took
	ist := time.FixedZone("IST", 5*3600+1800)
	offset := s.makeRequest(t, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id":        doctor.ID,
		"appointment_time": slot.Add(time.Hour).In(ist),
	}, johnToken)
	require.Equal(t, http.StatusCreated, offset.Code, offset.Message)
	var johns struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	offset.Decode(t, &johns)
	assert.Equal(t, date, johns.Date)
	assert.Equal(t, "11:00", johns.Time)

	// Doctor's day
	list := s.makeRequest(t, http.MethodGet, "/api/v1/appointments?date="+date+"&patient_name=jane", nil, doctorToken)
	require.Equal(t, http.StatusOK, list.Code, list.Message)
	assert.False(t, list.Degraded)
	var apts []struct {
		PatientName string `json:"patient_name"`
	}
	list.Decode(t, &apts)
	require.Len(t, apts, 1)
	assert.Equal(t, "Jane Doe", apts[0].PatientName)

	// Prescription
	rx := s.makeRequest(t, http.MethodPost, "/api/v1/prescriptions", map[string]interface{}{
		"appointment_id": booked.ID,
		"patient_name":   "Jane Doe",
		"medication":     "Amoxicillin",
		"dosage":         "500mg",
	}, doctorToken)
	assert.Equal(t, http.StatusCreated, rx.Code, rx.Message)

	// Patient history
	history := s.makeRequest(t, http.MethodGet, "/api/v1/patients/me/appointments?condition=future", nil, janeToken)
	require.Equal(t, http.StatusOK, history.Code)
	var mine []json.RawMessage
	history.Decode(t, &mine)
	assert.Len(t, mine, 1)

	// Cancel
	path := fmt.Sprintf("/api/v1/appointments/%d", booked.ID)
	assert.Equal(t, http.StatusForbidden, s.makeRequest(t, http.MethodDelete, path, nil, johnToken).Code)
	assert.Equal(t, http.StatusOK, s.makeRequest(t, http.MethodDelete, path, nil, janeToken).Code)
	assert.Equal(t, http.StatusNotFound, s.makeRequest(t, http.MethodDelete, path, nil, janeToken).Code)

	// Deleting the doctor revokes the doctor's token
	del := s.makeRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/doctors/%d", doctor.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, del.Code)
	gone := s.makeRequest(t, http.MethodGet, "/api/v1/appointments?date="+date, nil, doctorToken)
	assert.Equal(t, http.StatusUnauthorized, gone.Code)
}

func TestAuthorizationFailuresLookTheSame(t *testing.T) {
	s := newTestServer(t)
	patientToken := s.signup(t, "Jane Doe", "jane@example.com", "5550000002")

	tests := []struct {
		name  string
		path  string
		token string
	}{
		{"no token", "/api/v1/appointments?date=2030-01-01", ""},
		{"garbage token", "/api/v1/appointments?date=2030-01-01", "not-a-jwt"},
		{"wrong role", "/api/v1/appointments?date=2030-01-01", patientToken},
		{"admin route", "/api/v1/doctors/1", patientToken},
		{"unknown route role", "/api/v1/doctors/1/availability?date=2030-01-01&role=admin", patientToken},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if strings.HasPrefix(tt.name, "admin") {
				method = http.MethodDelete
			}
			resp := s.makeRequest(t, method, tt.path, nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			bodies = append(bodies, resp.Status+"|"+resp.Message)
		})
	}
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
}

func TestSignupConflictAndValidation(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Jane Doe", "jane@example.com", "5550000002")

	dup := s.makeRequest(t, http.MethodPost, "/api/v1/patients/signup", map[string]string{
		"name": "Jane Again", "email": "other@example.com", "phone": "5550000002",
		"address": "2 Main St", "password": "patient-pass",
	}, "")
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "Patient with email id or phone no already exist", dup.Message)

	bad := s.makeRequest(t, http.MethodPost, "/api/v1/patients/signup", map[string]string{
		"name": "Jo", "email": "not-an-email", "phone": "123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.makeRequest(t, http.MethodGet, "/api/v1/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.makeRequest(t, http.MethodGet, "/api/v1/health/ready", nil, "").Code)

	// metrics are text, not JSON
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
