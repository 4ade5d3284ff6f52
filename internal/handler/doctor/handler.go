package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/doctor"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type Handler struct {
	service *doctor.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *doctor.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/filter", h.FilterDoctors)
		doctors.GET("/:id/availability",
			h.auth.RequireQueryRole("role", model.RoleDoctor, model.RolePatient), h.GetAvailability)

		admin := doctors.Group("", h.auth.Require(model.RoleAdmin))
		admin.POST("", h.CreateDoctor)
		admin.PUT("", h.UpdateDoctor)
		admin.DELETE("/:id", h.DeleteDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	res := h.service.List(c.Request.Context())
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Data: res.Data, Degraded: res.Degraded})
}

func (h *Handler) FilterDoctors(c *gin.Context) {
	var filter model.DoctorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	res := h.service.Filter(c.Request.Context(), filter)
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Data: res.Data, Degraded: res.Degraded})
}

func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	date, err := h.service.ParseDate(c.Query("date"))
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}

	res := h.service.Availability(c.Request.Context(), id, date)
	c.JSON(http.StatusOK, &handler.Response{Status: "success", Data: res.Data, Degraded: res.Degraded})
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Doctor added to db", created))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Doctor updated", updated))
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("Doctor deleted successfully", nil))
}
