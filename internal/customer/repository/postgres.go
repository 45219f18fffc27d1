package repository

import (
	"context"
	"database/sql"
	"errors"

	"slot-booking/backend/internal/customer/domain"
)

const customerColumns = `id, name, email, password_hash, phone, note, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a customer repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the customer for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetByEmail returns the customer with the normalized email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, domain.NormalizeEmail(email))
}

// Create persists the customer. The customer must have ID set. A duplicate email surfaces as a unique violation.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Email, c.PasswordHash,
		sql.NullString{String: c.Phone, Valid: c.Phone != ""},
		sql.NullString{String: c.Note, Valid: c.Note != ""},
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Customer, error) {
	var c domain.Customer
	var phone, note sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &phone, &note, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Phone = phone.String
	c.Note = note.String
	return &c, nil
}
