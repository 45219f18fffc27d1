package repository

import (
	"context"

	"slot-booking/backend/internal/customer/domain"
)

// Repository defines persistence for customers.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
}
