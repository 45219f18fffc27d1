package domain

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a booked session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// ErrSlotTaken is returned by repositories when persisting would give a staff member two live sessions at the same start.
var ErrSlotTaken = errors.New("slot already taken")

// ErrNotActive is returned by repositories when an update targets a session that is missing or already cancelled.
var ErrNotActive = errors.New("session not active")

// StaffSummary is the staff projection attached to a session.
type StaffSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Session is one booked slot between a customer and a staff member.
type Session struct {
	ID         string
	CustomerID string
	StaffID    string
	StartAt    time.Time
	EndAt      time.Time // always StartAt + slot duration
	Title      string
	MeetURL    string
	ExternalID string // provider meeting id; empty when the provider returned none
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Staff      *StaffSummary // filled by repository reads
}

// Active reports whether the session still holds its slot.
func (s *Session) Active() bool {
	return s.Status != StatusCancelled
}

// Validate validates the session for persistence.
func (s *Session) Validate() error {
	if s.CustomerID == "" {
		return errors.New("customer id is required")
	}
	if s.StaffID == "" {
		return errors.New("staff id is required")
	}
	if !s.EndAt.After(s.StartAt) {
		return errors.New("end must be after start")
	}
	if s.MeetURL == "" {
		return errors.New("meet url is required")
	}
	if s.Status == "" {
		s.Status = StatusScheduled
	}
	if s.Status != StatusScheduled && s.Status != StatusCancelled {
		return errors.New("unknown status")
	}
	return nil
}
