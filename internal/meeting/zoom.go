package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/meeting/tokencache"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

const defaultTimeout = 15 * time.Second

const defaultTokenTTL = 3600

// ErrZoomNotConfigured is returned when Zoom credentials are missing.
var ErrZoomNotConfigured = apperr.InvalidInput("Zoom API が未設定です。管理者にお問い合わせください。")

// ZoomProvider creates meetings with the Zoom server-to-server OAuth app of one account.
type ZoomProvider struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	OAuthBaseURL string
	APIBaseURL   string
	TimeZone     string
	HTTPClient   *http.Client

	tokens *tokencache.Cache
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewZoomProvider returns a ZoomProvider. Empty base URLs and timezone use Zoom's public endpoints and Asia/Tokyo.
func NewZoomProvider(accountID, clientID, clientSecret, oauthBaseURL, apiBaseURL, timeZone string, tokens *tokencache.Cache, logger logrus.FieldLogger) *ZoomProvider {
	if oauthBaseURL == "" {
		oauthBaseURL = "https://zoom.us"
	}
	if apiBaseURL == "" {
		apiBaseURL = "https://api.zoom.us/v2"
	}
	if timeZone == "" {
		timeZone = "Asia/Tokyo"
	}
	if tokens == nil {
		tokens = tokencache.New()
	}
	return &ZoomProvider{
		AccountID:    accountID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		OAuthBaseURL: strings.TrimRight(oauthBaseURL, "/"),
		APIBaseURL:   strings.TrimRight(apiBaseURL, "/"),
		TimeZone:     timeZone,
		HTTPClient:   &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tokens:       tokens,
		logger:       logger,
		now:          time.Now,
	}
}

func (p *ZoomProvider) Name() string { return NameZoom }

// IsEnabled reports whether all credentials are set.
func (p *ZoomProvider) IsEnabled() bool {
	return p.AccountID != "" && p.ClientID != "" && p.ClientSecret != ""
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone"`
	Agenda    string              `json:"agenda"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	JoinBeforeHost               bool `json:"join_before_host"`
	WaitingRoom                  bool `json:"waiting_room"`
	HostVideo                    bool `json:"host_video"`
	ParticipantVideo             bool `json:"participant_video"`
	MuteUponEntry                bool `json:"mute_upon_entry"`
	ApprovalType                 int  `json:"approval_type"`
	RegistrantsEmailNotification bool `json:"registrants_email_notification"`
}

type zoomMeetingResponse struct {
	ID      json.Number `json:"id"`
	JoinURL string      `json:"join_url"`
}

// CreateMeeting schedules a Zoom meeting for the slot and returns its join URL.
func (p *ZoomProvider) CreateMeeting(ctx context.Context, staff *staffdomain.Staff, req Request) (Meeting, error) {
	if !p.IsEnabled() {
		return Meeting{}, ErrZoomNotConfigured
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return Meeting{}, err
	}

	minutes := int(math.Ceil(req.Window.EndAt.Sub(req.Window.StartAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	topic := req.Title
	if topic == "" {
		topic = staff.Name + " とのオンラインミーティング"
	}
	payload := zoomMeetingRequest{
		Topic:     topic,
		Type:      2,
		StartTime: req.Window.StartAt.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  minutes,
		Timezone:  p.TimeZone,
		Agenda:    staff.Name + " が主催するオンラインセッション",
		Settings: zoomMeetingSettings{
			JoinBeforeHost:   true,
			HostVideo:        true,
			ParticipantVideo: true,
			MuteUponEntry:    true,
			ApprovalType:     2,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Meeting{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIBaseURL+"/users/me/meetings", bytes.NewReader(raw))
	if err != nil {
		return Meeting{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return Meeting{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		p.tokens.Delete(p.cacheKey())
	}
	if resp.StatusCode/100 != 2 {
		return Meeting{}, p.statusError("create meeting", resp)
	}
	var out zoomMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Meeting{}, fmt.Errorf("zoom: decode meeting: %w", err)
	}
	if out.JoinURL == "" {
		return Meeting{}, errors.New("zoom: response did not include a join_url")
	}
	p.logger.WithFields(logrus.Fields{"meeting_id": out.ID.String(), "staff_email": staff.Email}).
		Info("meeting: created zoom meeting")
	return Meeting{MeetURL: out.JoinURL, ExternalID: out.ID.String()}, nil
}

// CancelMeeting deletes a meeting created by CreateMeeting. A meeting that no longer exists is not an error.
func (p *ZoomProvider) CancelMeeting(ctx context.Context, staff *staffdomain.Staff, externalID string) error {
	if externalID == "" {
		return nil
	}
	if !p.IsEnabled() {
		return ErrZoomNotConfigured
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.APIBaseURL+"/meetings/"+url.PathEscape(externalID), nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode/100 == 2 {
		return nil
	}
	return p.statusError("delete meeting", resp)
}

type zoomTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   *int   `json:"expires_in"`
}

func (p *ZoomProvider) cacheKey() string { return "zoom:" + p.AccountID }

// accessToken returns a cached token or fetches a new one with the account credentials grant.
func (p *ZoomProvider) accessToken(ctx context.Context) (string, error) {
	if tok, ok := p.tokens.Get(p.cacheKey()); ok {
		return tok, nil
	}
	q := url.Values{"grant_type": {"account_credentials"}, "account_id": {p.AccountID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.OAuthBaseURL+"/oauth/token?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(p.ClientID, p.ClientSecret)
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", p.statusError("obtain access token", resp)
	}
	var out zoomTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("zoom: decode token: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("zoom: token response did not include an access token")
	}
	ttl := defaultTokenTTL
	if out.ExpiresIn != nil {
		ttl = *out.ExpiresIn
	}
	ttl = max(0, ttl-60)
	p.tokens.Put(p.cacheKey(), out.AccessToken, p.now().Add(time.Duration(ttl)*time.Second))
	return out.AccessToken, nil
}

func (p *ZoomProvider) statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	p.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(b)}).
		Errorf("meeting: zoom %s failed", op)
	return fmt.Errorf("zoom: %s failed status=%s", op, strconv.Itoa(resp.StatusCode))
}
