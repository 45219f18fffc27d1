package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"slot-booking/backend/internal/staff/domain"
)

const staffColumns = `id, code, name, email, password_hash, google_refresh_token, google_calendar_id, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a staff repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the staff member for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	return scanOne(row)
}

// GetByCode returns the staff member with the given code, or nil if not found.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Staff, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE code = $1`, code)
	return scanOne(row)
}

// GetByEmail returns the staff member with the email, compared case-insensitively, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	return scanOne(row)
}

// List returns every staff member ordered by code.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Staff, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Staff
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the staff member. The staff member must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Staff) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff (`+staffColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Code, s.Name, s.Email, s.PasswordHash,
		nullString(s.GoogleRefreshToken), nullString(s.GoogleCalendarID), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// UpdateGoogleAuth stores the Google refresh token and calendar id for the staff member.
func (r *PostgresRepository) UpdateGoogleAuth(ctx context.Context, id, refreshToken, calendarID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE staff SET google_refresh_token = $2, google_calendar_id = $3, updated_at = $4 WHERE id = $1`,
		id, nullString(refreshToken), nullString(calendarID), time.Now().UTC(),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.Staff, error) {
	s, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scan(row scanner) (*domain.Staff, error) {
	var s domain.Staff
	var refresh, calendar sql.NullString
	if err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.PasswordHash, &refresh, &calendar, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.GoogleRefreshToken = refresh.String
	s.GoogleCalendarID = calendar.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
