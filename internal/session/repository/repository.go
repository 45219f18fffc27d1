package repository

import (
	"context"
	"time"

	"slot-booking/backend/internal/session/domain"
)

// Repository defines persistence for booked sessions.
// Create and Update return domain.ErrSlotTaken when the staff/start pair already has a live session.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Session, error)
	// FindActiveAt returns a non-cancelled session of staffID starting at startAt, skipping excludeID. Nil when none.
	FindActiveAt(ctx context.Context, staffID string, startAt time.Time, excludeID string) (*domain.Session, error)
	// ListActiveBetween returns non-cancelled sessions with from <= start_at < to.
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Update returns domain.ErrNotActive when the session is missing or cancelled.
	Update(ctx context.Context, s *domain.Session) error
	UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error
}
