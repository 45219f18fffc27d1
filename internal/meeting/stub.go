package meeting

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	staffdomain "slot-booking/backend/internal/staff/domain"
)

// DefaultMeetDomain is the stub link base when MEET_DOMAIN is unset.
const DefaultMeetDomain = "https://meet.google.com"

// StubProvider fabricates Meet-style links without calling any API. Always enabled.
type StubProvider struct {
	domain string
	logger logrus.FieldLogger
}

// NewStubProvider returns a StubProvider that builds links under domain.
func NewStubProvider(domain string, logger logrus.FieldLogger) *StubProvider {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if domain == "" {
		domain = DefaultMeetDomain
	}
	return &StubProvider{domain: domain, logger: logger}
}

func (p *StubProvider) Name() string    { return NameStub }
func (p *StubProvider) IsEnabled() bool { return true }

// CreateMeeting returns <domain>/xxx-xxx-xxx.
func (p *StubProvider) CreateMeeting(ctx context.Context, staff *staffdomain.Staff, req Request) (Meeting, error) {
	url := p.domain + "/" + slug()
	p.logger.WithFields(logrus.Fields{
		"meet_url":  url,
		"title":     req.Title,
		"attendees": strings.Join(req.Attendees, ","),
	}).Info("meeting: generated stub link")
	return Meeting{MeetURL: url, ExternalID: "stub-" + uuid.New().String()}, nil
}

func slug() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 0, 11)
	for i := 0; i < 9; i++ {
		if i > 0 && i%3 == 0 {
			b = append(b, '-')
		}
		b = append(b, letters[rand.IntN(len(letters))])
	}
	return string(b)
}
