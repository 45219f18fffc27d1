package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends notifications via unauthenticated SMTP (Mailpit and most local relays).
type SMTPSender struct {
	Addr     string
	From     string
	Location *time.Location
	send     SendFunc
}

// NewSMTPSender returns an SMTPSender for host:port. Times in the body are rendered in loc.
func NewSMTPSender(host, port, from string, loc *time.Location) *SMTPSender {
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@example.com"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SMTPSender{
		Addr:     net.JoinHostPort(strings.TrimSpace(host), strings.TrimSpace(port)),
		From:     from,
		Location: loc,
		send:     smtp.SendMail,
	}
}

// SendSessionNotification sends one plain-text message. Delivery errors become a failed Result.
func (s *SMTPSender) SendSessionNotification(ctx context.Context, n Notification) Result {
	if err := ctx.Err(); err != nil {
		return Result{ErrorMessage: err.Error()}
	}
	msg := buildMessage(s.From, n.To, n.Title, s.body(n))
	if err := s.send(s.Addr, nil, s.From, []string{n.To}, []byte(msg)); err != nil {
		return Result{ErrorMessage: fmt.Sprintf("smtp: %v", err)}
	}
	return Result{Success: true}
}

func (s *SMTPSender) body(n Notification) string {
	const layout = "2006-01-02 15:04"
	var b strings.Builder
	fmt.Fprintf(&b, "%s 様\r\n\r\n", n.CustomerName)
	fmt.Fprintf(&b, "%s とのセッションを予約しました。\r\n\r\n", n.StaffName)
	fmt.Fprintf(&b, "日時: %s - %s\r\n", n.StartAt.In(s.Location).Format(layout), n.EndAt.In(s.Location).Format("15:04"))
	fmt.Fprintf(&b, "参加URL: %s\r\n", n.MeetURL)
	return b.String()
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, body,
	)
}
