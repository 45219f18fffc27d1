package mail

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ConsoleSender logs notifications instead of sending them. Used when no SMTP relay is configured.
type ConsoleSender struct {
	From   string
	Logger logrus.FieldLogger
}

// NewConsoleSender returns a ConsoleSender; from defaults to no-reply@example.com.
func NewConsoleSender(from string, logger logrus.FieldLogger) *ConsoleSender {
	if from == "" {
		from = "no-reply@example.com"
	}
	return &ConsoleSender{From: from, Logger: logger}
}

// SendSessionNotification logs the notification and always succeeds.
func (s *ConsoleSender) SendSessionNotification(ctx context.Context, n Notification) Result {
	entry := s.Logger.WithFields(logrus.Fields{
		"from":     s.From,
		"to":       n.To,
		"customer": n.CustomerName,
		"staff":    n.StaffName,
		"start_at": n.StartAt.Format(time.RFC3339),
		"end_at":   n.EndAt.Format(time.RFC3339),
	})
	entry.Info("mail: sending session notification")
	entry.WithField("meet_url", n.MeetURL).Debug("mail: session link")
	return Result{Success: true}
}
