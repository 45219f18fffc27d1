package repository

import (
	"context"

	"slot-booking/backend/internal/emaillog/domain"
)

// Repository defines persistence for notification attempts.
type Repository interface {
	Create(ctx context.Context, l *domain.EmailLog) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.EmailLog, error)
}
