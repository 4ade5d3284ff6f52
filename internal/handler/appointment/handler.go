package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// DateParser reads a calendar date in the clinic's location.
type DateParser interface {
	ParseDate(s string) (time.Time, error)
}

type Handler struct {
	service *appointment.Service
	dates   DateParser
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *appointment.Service, dates DateParser, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, dates: dates, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.auth.Require(model.RoleDoctor), h.ListForDoctor)

		patient := appointments.Group("", h.auth.Require(model.RolePatient))
		patient.POST("", h.BookAppointment)
		patient.PUT("/:id", h.UpdateAppointment)
		patient.DELETE("/:id", h.CancelAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	account, _ := middleware.Account(c)

	apt := &model.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       account.ID,
		AppointmentTime: req.AppointmentTime,
	}
	if err := h.service.ValidateAndBook(c.Request.Context(), apt); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Appointment booked successfully", apt.ToResponse()))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	account, _ := middleware.Account(c)

	apt := &model.Appointment{
		Base:            model.Base{ID: id},
		DoctorID:        req.DoctorID,
		AppointmentTime: req.AppointmentTime,
		Status:          req.Status,
	}
	if err := h.service.UpdateOwned(c.Request.Context(), apt, account.ID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Appointment updated successfully", apt.ToResponse()))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	account, _ := middleware.Account(c)

	if err := h.service.Cancel(c.Request.Context(), id, account.ID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Appointment cancelled successfully", nil))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	var filters model.DoctorAppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	date, err := h.dates.ParseDate(filters.Date)
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}
	account, _ := middleware.Account(c)

	res := h.service.ListForDoctor(c.Request.Context(), account.ID, date, filters.PatientName)
	c.JSON(http.StatusOK, &handler.Response{
		Status:   "success",
		Data:     model.ToAppointmentResponses(res.Data),
		Degraded: res.Degraded,
	})
}
