package telemetry

import "time"

// Booking event types.
const (
	EventSessionCreated     = "session_created"
	EventSessionRescheduled = "session_rescheduled"
	EventSessionCancelled   = "session_cancelled"
)

// BookingEvent describes one committed change to a session. It is the Kafka message value (JSON).
type BookingEvent struct {
	Type        string    `json:"eventType"`
	SessionID   string    `json:"sessionId"`
	CustomerID  string    `json:"customerId"`
	StaffID     string    `json:"staffId"`
	StartAt     time.Time `json:"startAt"`
	Status      string    `json:"status"`
	EmailStatus string    `json:"emailStatus,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
