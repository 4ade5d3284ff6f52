package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
)

// ErrorHandler logs errors attached with c.Error and writes a response for
// the last one when the handler has not written anything yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			status := handler.StatusOf(e.Err)
			event := log.Ctx(c.Request.Context()).Warn()
			if status >= http.StatusInternalServerError {
				event = log.Ctx(c.Request.Context()).Error()
			}
			event.Err(e.Err).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Int("status", status).
				Msg("Request error")
		}

		if !c.Writer.Written() {
			handler.RespondError(c, c.Errors.Last().Err)
		}
	}
}
