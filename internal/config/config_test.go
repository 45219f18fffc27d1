package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":3000")
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.MeetingProvider != MeetingProviderAuto {
		t.Errorf("MeetingProvider = %q, want %q", cfg.MeetingProvider, MeetingProviderAuto)
	}
	if cfg.MeetDomain != "https://meet.google.com" {
		t.Errorf("MeetDomain = %q, want default", cfg.MeetDomain)
	}
	if cfg.ZoomOAuthBaseURL != "https://zoom.us" {
		t.Errorf("ZoomOAuthBaseURL = %q, want default", cfg.ZoomOAuthBaseURL)
	}
	if cfg.ZoomAPIBaseURL != "https://api.zoom.us/v2" {
		t.Errorf("ZoomAPIBaseURL = %q, want default", cfg.ZoomAPIBaseURL)
	}
	if cfg.ZoomMeetingTimezone != "Asia/Tokyo" {
		t.Errorf("ZoomMeetingTimezone = %q, want Asia/Tokyo", cfg.ZoomMeetingTimezone)
	}
	if cfg.MailFrom != "no-reply@example.com" {
		t.Errorf("MailFrom = %q, want default", cfg.MailFrom)
	}
	if cfg.BookingEventsTopic != "booking-events" {
		t.Errorf("BookingEventsTopic = %q, want booking-events", cfg.BookingEventsTopic)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want 120", cfg.RateLimitPerMinute)
	}
	if cfg.ZoomEnabled() || cfg.GoogleEnabled() || cfg.SMTPEnabled() {
		t.Error("no external integration should be enabled by default")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8081")
	os.Setenv("BCRYPT_COST", "12")
	os.Setenv("MEETING_PROVIDER", "Zoom")
	os.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8081")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.MeetingProvider != MeetingProviderZoom {
		t.Errorf("MeetingProvider = %q, want %q", cfg.MeetingProvider, MeetingProviderZoom)
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should be true")
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 10, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_InvalidMeetingProvider(t *testing.T) {
	os.Clearenv()
	os.Setenv("MEETING_PROVIDER", "teams")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject unknown MEETING_PROVIDER")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should require JWT_SECRET in production")
	}

	os.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with JWT_SECRET: %v", err)
	}
}

func TestAccessTTL(t *testing.T) {
	testCases := []struct {
		value string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"invalid", 24 * time.Hour},
		{"0", 24 * time.Hour},
		{"-5m", 24 * time.Hour},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_ACCESS_TTL", tc.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.AccessTTL(); got != tc.want {
				t.Errorf("AccessTTL = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList = %v, want [a:9092 b:9092]", got)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil list")
	}
}

func TestIntegrationToggles(t *testing.T) {
	cfg := &Config{ZoomAccountID: "acc", ZoomClientID: "id"}
	if cfg.ZoomEnabled() {
		t.Error("Zoom should need the client secret too")
	}
	cfg.ZoomClientSecret = "secret"
	if !cfg.ZoomEnabled() {
		t.Error("Zoom should be enabled with all credentials")
	}
	cfg.GoogleClientID, cfg.GoogleClientSecret = "id", "secret"
	if cfg.GoogleEnabled() {
		t.Error("Google should need a redirect URI")
	}
	cfg.GoogleRedirectURI = "http://localhost/cb"
	if !cfg.GoogleEnabled() {
		t.Error("Google should be enabled when fully configured")
	}
}
