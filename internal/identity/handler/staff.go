package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/identity/service"
	"slot-booking/backend/internal/server/interceptors"
)

// StaffAuthService is the subset of the staff auth service used over HTTP.
type StaffAuthService interface {
	Login(ctx context.Context, email, password string) (*service.StaffLoginResult, error)
}

// StaffHandler serves /staff/auth.
type StaffHandler struct {
	auth StaffAuthService
}

// NewStaffHandler returns a staff auth HTTP handler.
func NewStaffHandler(auth StaffAuthService) *StaffHandler {
	return &StaffHandler{auth: auth}
}

// Register mounts POST /login on g.
func (h *StaffHandler) Register(g *gin.RouterGroup) {
	g.POST("/login", h.Login)
}

// Login handles POST /staff/auth/login.
func (h *StaffHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		interceptors.RespondError(c, apperr.InvalidInput("リクエストの形式が不正です。"))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
