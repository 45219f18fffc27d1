// Package handler serves customer registration and login, and staff login.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	"slot-booking/backend/internal/identity/service"
	"slot-booking/backend/internal/server/interceptors"
)

// AuthService is the subset of the auth service used over HTTP.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*customerdomain.Profile, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// Handler serves /auth.
type Handler struct {
	auth AuthService
}

// NewHandler returns an auth HTTP handler.
func NewHandler(auth AuthService) *Handler {
	return &Handler{auth: auth}
}

// Register mounts POST /register and POST /login on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/register", h.SignUp)
	g.POST("/login", h.Login)
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /auth/register.
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		interceptors.RespondError(c, apperr.InvalidInput("リクエストの形式が不正です。"))
		return
	}
	p, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
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
