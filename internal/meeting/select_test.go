package meeting

import (
	"context"
	"testing"

	"slot-booking/backend/internal/logging"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

type toggleProvider struct {
	name    string
	enabled bool
}

func (p toggleProvider) Name() string    { return p.name }
func (p toggleProvider) IsEnabled() bool { return p.enabled }
func (p toggleProvider) CreateMeeting(context.Context, *staffdomain.Staff, Request) (Meeting, error) {
	return Meeting{}, nil
}

func TestSelect(t *testing.T) {
	stub := toggleProvider{NameStub, true}
	on := func(n string) Provider { return toggleProvider{n, true} }
	off := func(n string) Provider { return toggleProvider{n, false} }

	testCases := []struct {
		name   string
		mode   string
		google Provider
		zoom   Provider
		want   string
	}{
		{"auto prefers google", "auto", on(NameGoogle), on(NameZoom), NameGoogle},
		{"auto falls to zoom", "auto", off(NameGoogle), on(NameZoom), NameZoom},
		{"auto falls to stub", "auto", off(NameGoogle), off(NameZoom), NameStub},
		{"explicit zoom", "zoom", on(NameGoogle), on(NameZoom), NameZoom},
		{"explicit zoom disabled", "zoom", on(NameGoogle), off(NameZoom), NameStub},
		{"explicit google disabled", "google", off(NameGoogle), on(NameZoom), NameStub},
		{"explicit stub", "stub", on(NameGoogle), on(NameZoom), NameStub},
		{"nil providers", "auto", nil, nil, NameStub},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Select(tc.mode, tc.google, tc.zoom, stub, logging.Discard())
			if got.Name() != tc.want {
				t.Errorf("Select = %q, want %q", got.Name(), tc.want)
			}
		})
	}
}
