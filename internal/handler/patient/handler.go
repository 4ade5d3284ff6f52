package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/service/patient"
)

type Handler struct {
	service      patient.PatientService
	appointments *appointment.Service
	auth         *middleware.AuthMiddleware
}

func NewHandler(service patient.PatientService, appointments *appointment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, appointments: appointments, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("/signup", h.Signup)

		me := patients.Group("/me", h.auth.Require(model.RolePatient))
		me.GET("", h.GetDetails)
		me.GET("/appointments", h.ListAppointments)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	created, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Signup successful", created))
}

func (h *Handler) GetDetails(c *gin.Context) {
	account, _ := middleware.Account(c)

	p, err := h.service.Get(c.Request.Context(), account.ID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.PatientAppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	account, _ := middleware.Account(c)

	apts, err := h.appointments.ListForPatient(c.Request.Context(), account.ID, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.ToAppointmentResponses(apts)))
}
