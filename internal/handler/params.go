package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// ParamID parses a positive integer path parameter, answering 400 otherwise.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, apperrors.NewBadRequest("invalid "+name, err))
		return 0, false
	}
	return id, true
}
