package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"slot-booking/backend/internal/logging"
)

func sampleNotification() Notification {
	start := time.Date(2025, 12, 1, 1, 0, 0, 0, time.UTC)
	return Notification{
		To:           "customer@example.com",
		CustomerName: "デモ顧客",
		StaffName:    "担当A",
		StartAt:      start,
		EndAt:        start.Add(time.Hour),
		MeetURL:      "https://meet.google.com/abc-def-ghi",
		Title:        "担当A とのオンラインミーティング",
	}
}

func TestConsoleSender_AlwaysSucceeds(t *testing.T) {
	s := NewConsoleSender("", logging.Discard())
	if s.From != "no-reply@example.com" {
		t.Errorf("From = %q, want default", s.From)
	}
	res := s.SendSessionNotification(context.Background(), sampleNotification())
	if !res.Success {
		t.Errorf("Success = false, want true (%q)", res.ErrorMessage)
	}
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	s := NewSMTPSender("localhost", "1025", "bookings@example.com", jst)
	if s.Addr != "localhost:1025" {
		t.Errorf("Addr = %q, want localhost:1025", s.Addr)
	}
	var gotTo []string
	var gotMsg string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		gotMsg = string(msg)
		return nil
	}
	res := s.SendSessionNotification(context.Background(), sampleNotification())
	if !res.Success {
		t.Fatalf("Success = false: %q", res.ErrorMessage)
	}
	if len(gotTo) != 1 || gotTo[0] != "customer@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	for _, want := range []string{
		"From: bookings@example.com",
		"Subject: 担当A とのオンラインミーティング",
		"2025-12-01 10:00 - 11:00",
		"https://meet.google.com/abc-def-ghi",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSMTPSender_FailureBecomesResult(t *testing.T) {
	s := NewSMTPSender("localhost", "1025", "", nil)
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	res := s.SendSessionNotification(context.Background(), sampleNotification())
	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if !strings.Contains(res.ErrorMessage, "connection refused") {
		t.Errorf("ErrorMessage = %q", res.ErrorMessage)
	}
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender("localhost", "1025", "", nil)
	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.SendSessionNotification(ctx, sampleNotification())
	if res.Success || called {
		t.Error("cancelled context should fail without sending")
	}
}
