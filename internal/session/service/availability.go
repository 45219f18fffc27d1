package service

import (
	"time"

	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/slot"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

// SlotAvailability is one bookable slot and whether it is still free.
type SlotAvailability struct {
	StartAt   time.Time `json:"startAt"`
	Available bool      `json:"available"`
}

// StaffAvailability is the slot grid of one staff member for one day.
type StaffAvailability struct {
	Staff staffdomain.Profile `json:"staff"`
	Slots []SlotAvailability  `json:"slots"`
}

// Availability builds the per-staff grid for day (a midnight from slot.Policy.ParseDay).
// A slot is unavailable iff an active session of that staff member starts in the same slot bucket.
func Availability(policy slot.Policy, day time.Time, staff []*staffdomain.Staff, booked []*sessiondomain.Session) []StaffAvailability {
	taken := make(map[string]map[int64]struct{})
	for _, s := range booked {
		if s == nil || !s.Active() {
			continue
		}
		buckets := taken[s.StaffID]
		if buckets == nil {
			buckets = make(map[int64]struct{})
			taken[s.StaffID] = buckets
		}
		buckets[policy.Bucket(s.StartAt)] = struct{}{}
	}

	starts := policy.DaySlots(day)
	out := make([]StaffAvailability, 0, len(staff))
	for _, st := range staff {
		slots := make([]SlotAvailability, 0, len(starts))
		for _, start := range starts {
			_, isBooked := taken[st.ID][policy.Bucket(start)]
			slots = append(slots, SlotAvailability{StartAt: start, Available: !isBooked})
		}
		out = append(out, StaffAvailability{Staff: st.Sanitize(), Slots: slots})
	}
	return out
}
