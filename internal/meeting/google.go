package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"slot-booking/backend/internal/apperr"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

// DefaultCalendarBaseURL is the Google Calendar v3 API root.
const DefaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

var (
	// ErrGoogleNotConfigured is returned when the OAuth client is not set up.
	ErrGoogleNotConfigured = apperr.InvalidInput("Google OAuth が設定されていません。")
	// ErrGoogleNotLinked is returned when the staff member has not granted calendar access.
	ErrGoogleNotLinked = apperr.InvalidInput("Google連携が未設定です。先に連携を完了してください。")
)

// GoogleProvider creates Google Calendar events with a Meet conference on the staff member's calendar,
// authorized with the refresh token stored for that staff member.
type GoogleProvider struct {
	OAuth           *oauth2.Config
	CalendarBaseURL string
	TimeZone        string
	// HTTPClient is the base client for token refresh and API calls.
	HTTPClient *http.Client

	logger logrus.FieldLogger
}

// NewGoogleProvider returns a GoogleProvider. oauth may be nil when Google is not configured.
func NewGoogleProvider(oauth *oauth2.Config, calendarBaseURL, timeZone string, logger logrus.FieldLogger) *GoogleProvider {
	if calendarBaseURL == "" {
		calendarBaseURL = DefaultCalendarBaseURL
	}
	if timeZone == "" {
		timeZone = "Asia/Tokyo"
	}
	return &GoogleProvider{
		OAuth:           oauth,
		CalendarBaseURL: strings.TrimRight(calendarBaseURL, "/"),
		TimeZone:        timeZone,
		HTTPClient:      &http.Client{Timeout: defaultTimeout},
		logger:          logger,
	}
}

func (p *GoogleProvider) Name() string { return NameGoogle }

// IsEnabled reports whether the OAuth client id, secret and redirect URI are set.
func (p *GoogleProvider) IsEnabled() bool {
	return p.OAuth != nil && p.OAuth.ClientID != "" && p.OAuth.ClientSecret != "" && p.OAuth.RedirectURL != ""
}

type calendarTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type calendarAttendee struct {
	Email string `json:"email"`
}

type calendarEvent struct {
	ID             string             `json:"id,omitempty"`
	Summary        string             `json:"summary,omitempty"`
	Start          *calendarTime      `json:"start,omitempty"`
	End            *calendarTime      `json:"end,omitempty"`
	Attendees      []calendarAttendee `json:"attendees,omitempty"`
	HangoutLink    string             `json:"hangoutLink,omitempty"`
	ConferenceData *conferenceData    `json:"conferenceData,omitempty"`
}

type conferenceData struct {
	CreateRequest *createConferenceRequest `json:"createRequest,omitempty"`
	EntryPoints   []entryPoint             `json:"entryPoints,omitempty"`
}

type createConferenceRequest struct {
	RequestID string `json:"requestId"`
}

type entryPoint struct {
	EntryPointType string `json:"entryPointType"`
	URI            string `json:"uri"`
}

func (e *calendarEvent) meetURL() string {
	if e.ConferenceData != nil {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.URI != "" {
				return ep.URI
			}
		}
	}
	return e.HangoutLink
}

// CreateMeeting inserts a calendar event with a Meet conference and returns its video link.
func (p *GoogleProvider) CreateMeeting(ctx context.Context, staff *staffdomain.Staff, req Request) (Meeting, error) {
	client, calendarID, err := p.client(ctx, staff)
	if err != nil {
		return Meeting{}, err
	}
	summary := req.Title
	if summary == "" {
		summary = staff.Name + " とのオンラインミーティング"
	}
	ev := calendarEvent{
		Summary: summary,
		Start:   &calendarTime{DateTime: req.Window.StartAt.UTC().Format(time.RFC3339), TimeZone: p.TimeZone},
		End:     &calendarTime{DateTime: req.Window.EndAt.UTC().Format(time.RFC3339), TimeZone: p.TimeZone},
		ConferenceData: &conferenceData{
			CreateRequest: &createConferenceRequest{RequestID: "meet-" + uuid.New().String()},
		},
	}
	for _, a := range req.Attendees {
		ev.Attendees = append(ev.Attendees, calendarAttendee{Email: a})
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return Meeting{}, err
	}
	q := url.Values{"conferenceDataVersion": {"1"}, "sendUpdates": {"none"}}
	endpoint := p.eventsURL(calendarID) + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return Meeting{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(httpReq)
	if err != nil {
		return Meeting{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Meeting{}, p.statusError("insert event", resp)
	}
	var out calendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Meeting{}, fmt.Errorf("google: decode event: %w", err)
	}
	link := out.meetURL()
	if out.ID == "" || link == "" {
		return Meeting{}, errors.New("google: calendar API did not return a Meet URL")
	}
	p.logger.WithFields(logrus.Fields{"event_id": out.ID, "meet_url": link}).Info("meeting: created google meet")
	return Meeting{MeetURL: link, ExternalID: out.ID}, nil
}

// CancelMeeting deletes the calendar event. An event that is already gone is not an error.
func (p *GoogleProvider) CancelMeeting(ctx context.Context, staff *staffdomain.Staff, externalID string) error {
	if externalID == "" {
		return nil
	}
	client, calendarID, err := p.client(ctx, staff)
	if err != nil {
		return err
	}
	endpoint := p.eventsURL(calendarID) + "/" + url.PathEscape(externalID) + "?sendUpdates=none"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode/100 == 2, resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return nil
	}
	return p.statusError("delete event", resp)
}

// client returns an HTTP client that refreshes the staff member's access token as needed.
func (p *GoogleProvider) client(ctx context.Context, staff *staffdomain.Staff) (*http.Client, string, error) {
	if !p.IsEnabled() {
		return nil, "", ErrGoogleNotConfigured
	}
	if staff == nil || staff.GoogleRefreshToken == "" {
		return nil, "", ErrGoogleNotLinked
	}
	calendarID := staff.GoogleCalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	base := p.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	src := p.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: staff.GoogleRefreshToken})
	client := &http.Client{
		Timeout:   base.Timeout,
		Transport: &oauth2.Transport{Source: src, Base: base.Transport},
	}
	return client, calendarID, nil
}

func (p *GoogleProvider) eventsURL(calendarID string) string {
	return p.CalendarBaseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (p *GoogleProvider) statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	p.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(b)}).
		Errorf("meeting: google %s failed", op)
	return fmt.Errorf("google: %s failed status=%d", op, resp.StatusCode)
}
