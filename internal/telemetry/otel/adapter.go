package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"slot-booking/backend/internal/telemetry"
)

// instrumentationName scopes booking records emitted through OTel Logs.
const instrumentationName = "slot-booking.bookings"

// RecordEmitter is the subset of otellog.Logger used by the emitter.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends booking events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger RecordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.BookingEvent) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Emit converts the booking event to a log record: the JSON event is the body and the identifiers are attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.BookingEvent) error {
	if event == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	rec := otellog.Record{}
	rec.SetTimestamp(event.CreatedAt)
	if event.CreatedAt.IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.BytesValue(body))
	for _, kv := range []struct{ k, v string }{
		{"event_type", event.Type},
		{"session_id", event.SessionID},
		{"customer_id", event.CustomerID},
		{"staff_id", event.StaffID},
		{"status", event.Status},
		{"email_status", event.EmailStatus},
	} {
		if kv.v != "" {
			rec.AddAttributes(otellog.String(kv.k, kv.v))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}
