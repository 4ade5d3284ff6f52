package prescription

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/prescription"
)

type Handler struct {
	service *prescription.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *prescription.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prescriptions := r.Group("/prescriptions", h.auth.Require(model.RoleDoctor))
	{
		prescriptions.POST("", h.SavePrescription)
		prescriptions.GET("/:appointmentId", h.ListPrescriptions)
	}
}

func (h *Handler) SavePrescription(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	account, _ := middleware.Account(c)

	saved, err := h.service.Save(c.Request.Context(), account.ID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("Prescription saved", saved))
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	appointmentID, ok := handler.ParamID(c, "appointmentId")
	if !ok {
		return
	}
	account, _ := middleware.Account(c)

	list, err := h.service.List(c.Request.Context(), account.ID, appointmentID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
