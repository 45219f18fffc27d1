package telemetry

import (
	"context"
	"errors"
)

// EventEmitter emits booking events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *BookingEvent) error
}

// MultiEmitter fans an event out to every emitter and joins their errors.
type MultiEmitter []EventEmitter

// Multi returns an emitter over the non-nil emitters, or nil when there are none.
func Multi(emitters ...EventEmitter) EventEmitter {
	var out MultiEmitter
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Emit calls every emitter even if an earlier one fails.
func (m MultiEmitter) Emit(ctx context.Context, event *BookingEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
