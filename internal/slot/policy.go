// Package slot defines the bookable calendar: which instants may start a session and how long a session lasts.
// Everything here is pure; the caller supplies the current time.
package slot

import (
	"fmt"
	"strings"
	"time"

	"slot-booking/backend/internal/apperr"
)

// Business calendar defaults.
const (
	DefaultStartHour   = 10
	DefaultEndHour     = 19 // exclusive
	DefaultDuration    = 60 * time.Minute
	DefaultHorizonDays = 10
	DefaultTimezone    = "Asia/Tokyo"
)

// User-visible rejection messages.
const (
	MsgInvalidTimestamp = "日時の形式が不正です。"
	MsgInPast           = "過去の日時は予約できません。"
	MsgNotOnBoundary    = "予約枠は1時間刻みです。00分を指定してください。"
	MsgDateRequired     = "日付を指定してください。"
	MsgInvalidDate      = "日付の形式が不正です。YYYY-MM-DD で指定してください。"
)

// Window is a validated slot.
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// Policy holds the bookable hours, slot length and horizon of one business calendar.
type Policy struct {
	StartHour   int
	EndHour     int
	Duration    time.Duration
	HorizonDays int
	Location    *time.Location
}

// DefaultPolicy returns the 10:00–19:00 Asia/Tokyo calendar with hourly slots bookable 10 days ahead.
func DefaultPolicy() Policy {
	return Policy{
		StartHour:   DefaultStartHour,
		EndHour:     DefaultEndHour,
		Duration:    DefaultDuration,
		HorizonDays: DefaultHorizonDays,
		Location:    tokyo(),
	}
}

// tokyo loads Asia/Tokyo, falling back to a fixed +09:00 zone when tzdata is unavailable. Japan has no DST.
func tokyo() *time.Location {
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.FixedZone(DefaultTimezone, 9*60*60)
}

// localLayouts are accepted timestamps without an offset, read as business-timezone wall time.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseWindow parses an RFC 3339 timestamp, or one without an offset in the policy's timezone,
// and validates it against the policy. See Window.
func (p Policy) ParseWindow(raw string, now time.Time) (Window, error) {
	start, err := p.parseTimestamp(strings.TrimSpace(raw))
	if err != nil {
		return Window{}, apperr.InvalidInput(MsgInvalidTimestamp)
	}
	return p.Window(start, now)
}

func (p Policy) parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, raw, p.Location); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, err
}

// Window validates start in order: not in the past, within the horizon, on a slot boundary,
// inside bookable hours. Each failure is an InvalidInput error with its own message.
func (p Policy) Window(start, now time.Time) (Window, error) {
	if start.IsZero() {
		return Window{}, apperr.InvalidInput(MsgInvalidTimestamp)
	}
	if start.Before(now) {
		return Window{}, apperr.InvalidInput(MsgInPast)
	}
	if start.After(now.AddDate(0, 0, p.HorizonDays)) {
		return Window{}, apperr.InvalidInput(fmt.Sprintf("%d日より先の予約はできません。", p.HorizonDays))
	}
	if u := start.UTC(); u.Minute() != 0 || u.Second() != 0 || u.Nanosecond() != 0 {
		return Window{}, apperr.InvalidInput(MsgNotOnBoundary)
	}
	hour := start.In(p.Location).Hour()
	if hour < p.StartHour || hour >= p.EndHour {
		return Window{}, apperr.InvalidInput(fmt.Sprintf("予約可能時間は%d:00〜%d:00です。", p.StartHour, p.EndHour))
	}
	return Window{StartAt: start.UTC(), EndAt: start.UTC().Add(p.Duration)}, nil
}

// ParseDay parses YYYY-MM-DD as midnight in the business timezone.
func (p Policy) ParseDay(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, apperr.InvalidInput(MsgDateRequired)
	}
	day, err := time.ParseInLocation(time.DateOnly, date, p.Location)
	if err != nil {
		return time.Time{}, apperr.InvalidInput(MsgInvalidDate)
	}
	return day, nil
}

// DaySlots returns the start of every bookable slot on day, which must be a midnight from ParseDay.
func (p Policy) DaySlots(day time.Time) []time.Time {
	out := make([]time.Time, 0, p.EndHour-p.StartHour)
	for h := p.StartHour; h < p.EndHour; h++ {
		out = append(out, day.Add(time.Duration(h)*time.Hour).UTC())
	}
	return out
}

// Bucket maps an instant to its slot index since the epoch.
func (p Policy) Bucket(t time.Time) int64 {
	return t.UnixMilli() / p.Duration.Milliseconds()
}
