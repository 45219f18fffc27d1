// Package emaillog sends booking notifications and records every attempt.
package emaillog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/emaillog/repository"
	"slot-booking/backend/internal/mail"
)

// DefaultFailureMessage is stored when a sender fails without saying why.
const DefaultFailureMessage = "メール送信に失敗しました。"

// recordTimeout bounds the log insert, which runs even after the caller's context is done.
const recordTimeout = 5 * time.Second

// Notifier sends a notification for a session and records the attempt.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n mail.Notification) domain.Status
}

// Recorder implements Notifier with a mail.Sender and the email log repository.
type Recorder struct {
	sender mail.Sender
	repo   repository.Repository
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRecorder returns a Recorder. repo may be nil; then attempts are sent but not recorded.
func NewRecorder(sender mail.Sender, repo repository.Repository, logger logrus.FieldLogger) *Recorder {
	return &Recorder{sender: sender, repo: repo, logger: logger, now: time.Now}
}

// Notify sends n and writes exactly one log row with the outcome. Best-effort: a failed insert is
// logged and not returned, and the send status is returned regardless. The insert is detached from
// ctx cancellation so an attempt that was made is always recorded.
func (r *Recorder) Notify(ctx context.Context, sessionID string, n mail.Notification) domain.Status {
	res := r.sender.SendSessionNotification(ctx, n)
	entry := &domain.EmailLog{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ToEmail:   n.To,
		Subject:   n.Title,
		Body:      n.MeetURL,
		Status:    domain.StatusSuccess,
		CreatedAt: r.now().UTC(),
	}
	if !res.Success {
		entry.Status = domain.StatusFailed
		entry.ErrorMessage = res.ErrorMessage
		if entry.ErrorMessage == "" {
			entry.ErrorMessage = DefaultFailureMessage
		}
		r.logger.WithFields(logrus.Fields{"session_id": sessionID, "error": entry.ErrorMessage}).
			Warn("emaillog: notification failed")
	}
	if r.repo == nil {
		return entry.Status
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Error("emaillog: failed to record attempt")
	}
	return entry.Status
}
