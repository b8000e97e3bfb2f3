package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

// respondError maps a service error onto its transport status.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := faults.HTTPStatus(err)
	if status >= 500 {
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
