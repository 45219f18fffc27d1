// Package meeting provisions online meeting links for booked sessions.
package meeting

import (
	"context"

	"slot-booking/backend/internal/slot"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

// Provider names, matching config.MeetingProvider values.
const (
	NameStub   = "stub"
	NameZoom   = "zoom"
	NameGoogle = "google"
)

// Request describes the meeting to create.
type Request struct {
	Window    slot.Window
	Title     string
	Attendees []string
}

// Meeting is a provisioned meeting. ExternalID may be empty.
type Meeting struct {
	MeetURL    string
	ExternalID string
}

// Provider creates meetings on behalf of a staff member.
// Errors that callers may show to users are apperr InvalidInput errors; anything else is a provider failure.
type Provider interface {
	Name() string
	IsEnabled() bool
	CreateMeeting(ctx context.Context, staff *staffdomain.Staff, req Request) (Meeting, error)
}

// Canceler is implemented by providers that can delete a meeting they created.
type Canceler interface {
	CancelMeeting(ctx context.Context, staff *staffdomain.Staff, externalID string) error
}
