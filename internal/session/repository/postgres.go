package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slot-booking/backend/internal/db"
	"slot-booking/backend/internal/session/domain"
)

const selectSession = `
	SELECT s.id, s.customer_id, s.staff_id, s.start_at, s.end_at, s.title, s.meet_url, s.external_id,
	       s.status, s.created_at, s.updated_at, st.name, st.email, st.code
	FROM sessions s
	JOIN staff st ON st.id = s.staff_id`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the session for id with its staff projection, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, selectSession+` WHERE s.id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListByCustomer returns the customer's sessions, newest start first.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Session, error) {
	return r.list(ctx, selectSession+` WHERE s.customer_id = $1 ORDER BY s.start_at DESC`, customerID)
}

// FindActiveAt returns a live session of staffID at startAt other than excludeID, or nil.
func (r *PostgresRepository) FindActiveAt(ctx context.Context, staffID string, startAt time.Time, excludeID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, selectSession+`
		WHERE s.staff_id = $1 AND s.start_at = $2 AND s.status <> $3 AND s.id <> $4
		LIMIT 1`, staffID, startAt, domain.StatusCancelled, excludeID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListActiveBetween returns live sessions starting in [from, to).
func (r *PostgresRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	return r.list(ctx, selectSession+`
		WHERE s.start_at >= $1 AND s.start_at < $2 AND s.status <> $3
		ORDER BY s.start_at`, from, to, domain.StatusCancelled)
}

// Create persists a new session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, customer_id, staff_id, start_at, end_at, title, meet_url, external_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.CustomerID, s.StaffID, s.StartAt, s.EndAt, s.Title, s.MeetURL,
		nullString(s.ExternalID), s.Status, s.CreatedAt, s.UpdatedAt,
	)
	return mapWriteErr(err)
}

// Update rewrites the mutable fields of an active session in place. A session cancelled since it was
// read is left untouched and reported as domain.ErrNotActive.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Session) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET staff_id = $2, start_at = $3, end_at = $4, title = $5, meet_url = $6, external_id = $7, status = $8, updated_at = $9
		WHERE id = $1 AND status <> $10`,
		s.ID, s.StaffID, s.StartAt, s.EndAt, s.Title, s.MeetURL, nullString(s.ExternalID), s.Status, s.UpdatedAt,
		domain.StatusCancelled,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrNotActive)
	}
	return nil
}

// UpdateStatus sets only the status column.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return mapWriteErr(err)
	}
	return expectOneRow(res, id)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var s domain.Session
	var externalID sql.NullString
	var status string
	staff := &domain.StaffSummary{}
	err := row.Scan(&s.ID, &s.CustomerID, &s.StaffID, &s.StartAt, &s.EndAt, &s.Title, &s.MeetURL, &externalID,
		&status, &s.CreatedAt, &s.UpdatedAt, &staff.Name, &staff.Email, &staff.Code)
	if err != nil {
		return nil, err
	}
	s.ExternalID = externalID.String
	s.Status = domain.Status(status)
	s.StartAt = s.StartAt.UTC()
	s.EndAt = s.EndAt.UTC()
	staff.ID = s.StaffID
	s.Staff = staff
	return &s, nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return domain.ErrSlotTaken
	}
	return err
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
