package domain

import "time"

// Status is the outcome of one notification attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// EmailLog records one notification attempt for a session. Rows are append-only.
type EmailLog struct {
	ID           string
	SessionID    string
	ToEmail      string
	Subject      string
	Body         string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
}
