package middleware

import (
	"net/http"

	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery logs a panic and renders the standard error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.String("trace_id", TraceIDFromContext(c.Request.Context())),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: "Something went wrong",
		})
	})
}
