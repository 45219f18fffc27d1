package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz handles GET /healthz. The process is alive if it can answer.
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz handles GET /readyz.
func (s *Server) Readyz(c *gin.Context) {
	if err := s.Ready(c.Request.Context()); err != nil {
		s.logger.WithError(err).Warn("health: readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
