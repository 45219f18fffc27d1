// Package handler exposes the booking workflow over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	emaillogdomain "slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/server/interceptors"
	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/session/service"
)

// MsgInvalidBody is returned when the JSON body cannot be decoded.
const MsgInvalidBody = "リクエストの形式が不正です。"

// Service is the booking workflow used by the handler.
type Service interface {
	ListForCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error)
	GetSessionDetail(ctx context.Context, customerID, sessionID string) (*sessiondomain.Session, error)
	GetAvailability(ctx context.Context, date string) ([]service.StaffAvailability, error)
	CreateSession(ctx context.Context, customer *customerdomain.Customer, in service.CreateInput) (*service.BookingResult, error)
	RescheduleSession(ctx context.Context, customer *customerdomain.Customer, sessionID string, in service.RescheduleInput) (*service.BookingResult, error)
	CancelSession(ctx context.Context, customer *customerdomain.Customer, sessionID string) (*sessiondomain.Session, error)
	ListEmailLogs(ctx context.Context, customerID, sessionID string) ([]*emaillogdomain.EmailLog, error)
}

// Handler serves /sessions. Every route expects interceptors.Auth to have run.
type Handler struct {
	svc Service
}

// NewHandler returns a session HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/availability", h.Availability)
	g.GET("/:id", h.Detail)
	g.PATCH("/:id", h.Reschedule)
	g.DELETE("/:id", h.Cancel)
	g.GET("/:id/email-logs", h.EmailLogs)
}

type createRequest struct {
	StaffID string  `json:"staffId"`
	StartAt string  `json:"startAt"`
	Title   *string `json:"title"`
}

type rescheduleRequest struct {
	StaffID *string `json:"staffId"`
	StartAt *string `json:"startAt"`
	Title   *string `json:"title"`
}

// SessionResponse is the JSON shape of a session.
type SessionResponse struct {
	ID          string                      `json:"id"`
	CustomerID  string                      `json:"customerId"`
	StaffID     string                      `json:"staffId"`
	StartAt     time.Time                   `json:"startAt"`
	EndAt       time.Time                   `json:"endAt"`
	Title       string                      `json:"title"`
	MeetURL     string                      `json:"meetUrl"`
	ExternalID  string                      `json:"externalId,omitempty"`
	Status      sessiondomain.Status        `json:"status"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
	Staff       *sessiondomain.StaffSummary `json:"staff,omitempty"`
	EmailStatus string                      `json:"emailStatus,omitempty"`
}

func toResponse(s *sessiondomain.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		StaffID:    s.StaffID,
		StartAt:    s.StartAt,
		EndAt:      s.EndAt,
		Title:      s.Title,
		MeetURL:    s.MeetURL,
		ExternalID: s.ExternalID,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Staff:      s.Staff,
	}
}

// EmailLogResponse is the JSON shape of one notification attempt.
type EmailLogResponse struct {
	ID           string                `json:"id"`
	SessionID    string                `json:"sessionId"`
	ToEmail      string                `json:"toEmail"`
	Subject      string                `json:"subject"`
	Status       emaillogdomain.Status `json:"status"`
	ErrorMessage string                `json:"errorMessage,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func bookingResponse(res *service.BookingResult) SessionResponse {
	out := toResponse(res.Session)
	out.EmailStatus = string(res.EmailStatus)
	return out
}

// List handles GET /sessions.
func (h *Handler) List(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	list, err := h.svc.ListForCustomer(c.Request.Context(), cust.ID)
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	out := make([]SessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		interceptors.RespondError(c, apperr.InvalidInput(MsgInvalidBody))
		return
	}
	res, err := h.svc.CreateSession(c.Request.Context(), cust, service.CreateInput{
		StaffID: req.StaffID,
		StartAt: req.StartAt,
		Title:   req.Title,
	})
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingResponse(res))
}

// Availability handles GET /sessions/availability?date=YYYY-MM-DD.
func (h *Handler) Availability(c *gin.Context) {
	grid, err := h.svc.GetAvailability(c.Request.Context(), c.Query("date"))
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// Detail handles GET /sessions/:id.
func (h *Handler) Detail(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	s, err := h.svc.GetSessionDetail(c.Request.Context(), cust.ID, c.Param("id"))
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(s))
}

// Reschedule handles PATCH /sessions/:id.
func (h *Handler) Reschedule(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		interceptors.RespondError(c, apperr.InvalidInput(MsgInvalidBody))
		return
	}
	res, err := h.svc.RescheduleSession(c.Request.Context(), cust, c.Param("id"), service.RescheduleInput{
		StaffID: req.StaffID,
		StartAt: req.StartAt,
		Title:   req.Title,
	})
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(res))
}

// Cancel handles DELETE /sessions/:id.
func (h *Handler) Cancel(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	s, err := h.svc.CancelSession(c.Request.Context(), cust, c.Param("id"))
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(s))
}

// EmailLogs handles GET /sessions/:id/email-logs.
func (h *Handler) EmailLogs(c *gin.Context) {
	cust, ok := customer(c)
	if !ok {
		return
	}
	logs, err := h.svc.ListEmailLogs(c.Request.Context(), cust.ID, c.Param("id"))
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	out := make([]EmailLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, EmailLogResponse{
			ID:           l.ID,
			SessionID:    l.SessionID,
			ToEmail:      l.ToEmail,
			Subject:      l.Subject,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func customer(c *gin.Context) (*customerdomain.Customer, bool) {
	cust, ok := interceptors.Customer(c)
	if !ok {
		interceptors.RespondError(c, apperr.Unauthorized(interceptors.MsgUnauthenticated))
	}
	return cust, ok
}
