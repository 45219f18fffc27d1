// Package mail delivers booking notifications to customers.
package mail

import (
	"context"
	"time"
)

// Notification is the content of one booking notification.
type Notification struct {
	To           string
	CustomerName string
	StaffName    string
	StartAt      time.Time
	EndAt        time.Time
	MeetURL      string
	Title        string
}

// Result reports the outcome of a send. ErrorMessage may be empty on failure.
type Result struct {
	Success      bool
	ErrorMessage string
}

// Sender sends session notifications. Implementations report delivery problems in Result rather than error
// so callers can always record the attempt.
type Sender interface {
	SendSessionNotification(ctx context.Context, n Notification) Result
}
