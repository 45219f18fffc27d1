package repository

import (
	"context"
	"database/sql"

	"slot-booking/backend/internal/emaillog/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an email log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.EmailLog) error {
	msg := sql.NullString{String: l.ErrorMessage, Valid: l.ErrorMessage != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_logs (id, session_id, to_email, subject, body, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.SessionID, l.ToEmail, l.Subject, l.Body, string(l.Status), msg, l.CreatedAt,
	)
	return err
}

// ListBySession returns the attempts for a session, oldest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.EmailLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, to_email, subject, body, status, error_message, created_at
		FROM email_logs WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.EmailLog
	for rows.Next() {
		var (
			l      domain.EmailLog
			status string
			msg    sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ToEmail, &l.Subject, &l.Body, &status, &msg, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Status = domain.Status(status)
		if msg.Valid {
			l.ErrorMessage = msg.String
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
