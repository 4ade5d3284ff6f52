package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

func respond(fn gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items/:id", fn)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "app error",
			err:      apperrors.NewSlotUnavailable(nil),
			wantCode: http.StatusConflict,
			wantBody: `{"status":"error","message":"Appointment time not available"}`,
		},
		{
			name:     "wrapped app error",
			err:      errors.Join(errors.New("ctx"), apperrors.NewDoctorNotFound(nil)),
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"error","message":"Doctor does not exist"}`,
		},
		{
			name:     "storage detail hidden",
			err:      apperrors.NewStorage("Error saving appointment", errors.New("pq: connection refused")),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"status":"error","message":"Error saving appointment"}`,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"status":"error","message":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := respond(func(c *gin.Context) { RespondError(c, tt.err) }, "/items/1")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantCode, StatusOf(tt.err))
		})
	}
}

func TestParamID(t *testing.T) {
	var got int64
	fn := func(c *gin.Context) {
		id, ok := ParamID(c, "id")
		if !ok {
			return
		}
		got = id
		c.Status(http.StatusOK)
	}

	assert.Equal(t, http.StatusOK, respond(fn, "/items/42").Code)
	assert.Equal(t, int64(42), got)
	assert.Equal(t, http.StatusBadRequest, respond(fn, "/items/abc").Code)
	assert.Equal(t, http.StatusBadRequest, respond(fn, "/items/-3").Code)
}
