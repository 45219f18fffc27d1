// Package handler serves the staff roster.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/server/interceptors"
	"slot-booking/backend/internal/staff/domain"
)

// Lister lists staff members.
type Lister interface {
	List(ctx context.Context) ([]*domain.Staff, error)
}

// Handler serves GET /staff.
type Handler struct {
	staff Lister
}

// NewHandler returns a staff HTTP handler.
func NewHandler(staff Lister) *Handler {
	return &Handler{staff: staff}
}

// List returns every staff member without credentials.
func (h *Handler) List(c *gin.Context) {
	list, err := h.staff.List(c.Request.Context())
	if err != nil {
		interceptors.RespondError(c, apperr.Internal("担当者一覧の取得に失敗しました。", err))
		return
	}
	out := make([]domain.Profile, 0, len(list))
	for _, s := range list {
		out = append(out, s.Sanitize())
	}
	c.JSON(http.StatusOK, out)
}
