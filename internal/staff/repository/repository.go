package repository

import (
	"context"

	"slot-booking/backend/internal/staff/domain"
)

// Repository defines persistence for staff members.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	GetByCode(ctx context.Context, code string) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
	List(ctx context.Context) ([]*domain.Staff, error)
	Create(ctx context.Context, s *domain.Staff) error
	UpdateGoogleAuth(ctx context.Context, id, refreshToken, calendarID string) error
}
