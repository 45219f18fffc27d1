// Package producer publishes booking events to a message broker.
package producer

import (
	"context"

	"slot-booking/backend/internal/telemetry"
)

// Producer emits booking events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	Emit(ctx context.Context, event *telemetry.BookingEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
