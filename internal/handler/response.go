package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	appvalidator "github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

type Response struct {
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Degraded bool        `json:"degraded,omitempty"`
	Errors   interface{} `json:"errors,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewMessageResponse(message string, data interface{}) *Response {
	return &Response{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// RespondError writes err as a JSON error body and records it on the
// context for the error middleware to log. Messages of errors that are not
// AppErrors never reach the client.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), NewErrorResponse(appErr.Message))
}

// RespondBindError reports a request that failed binding or validation.
func RespondBindError(c *gin.Context, err error) {
	resp := NewErrorResponse("invalid request")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Errors = appvalidator.Describe(err)
	}
	_ = c.Error(apperrors.NewBadRequest("invalid request", err))
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
