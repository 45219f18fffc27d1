// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Meeting provider selections accepted in MEETING_PROVIDER.
const (
	MeetingProviderAuto   = "auto"
	MeetingProviderGoogle = "google"
	MeetingProviderZoom   = "zoom"
	MeetingProviderStub   = "stub"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the JSON API listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr serves the gRPC health service. Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs customer access tokens and Google OAuth state tokens (HS256).
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTAccessTTL is the access token lifetime (e.g. "24h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31).
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// FrontendOrigin is where the Google OAuth callback redirects.
	FrontendOrigin string `mapstructure:"FRONTEND_ORIGIN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// MeetingProvider is auto, google, zoom or stub.
	MeetingProvider string `mapstructure:"MEETING_PROVIDER"`
	// MeetDomain is the base URL for stub meeting links.
	MeetDomain string `mapstructure:"MEET_DOMAIN"`

	ZoomAccountID       string `mapstructure:"ZOOM_ACCOUNT_ID"`
	ZoomClientID        string `mapstructure:"ZOOM_CLIENT_ID"`
	ZoomClientSecret    string `mapstructure:"ZOOM_CLIENT_SECRET"`
	ZoomOAuthBaseURL    string `mapstructure:"ZOOM_OAUTH_BASE_URL"`
	ZoomAPIBaseURL      string `mapstructure:"ZOOM_API_BASE_URL"`
	ZoomMeetingTimezone string `mapstructure:"ZOOM_MEETING_TIMEZONE"`

	GoogleClientID         string `mapstructure:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret     string `mapstructure:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleRedirectURI      string `mapstructure:"GOOGLE_OAUTH_REDIRECT_URI"`
	GoogleCalendarTimezone string `mapstructure:"GOOGLE_CALENDAR_TIMEZONE"`
	// GoogleCalendarBaseURL overrides the Calendar API root (tests, proxies).
	GoogleCalendarBaseURL string `mapstructure:"GOOGLE_CALENDAR_BASE_URL"`

	// MailFrom is the sender address for booking notifications.
	MailFrom string `mapstructure:"MAIL_FROM"`
	// SMTPHost enables the SMTP sender when set; otherwise notifications are logged.
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`

	// KafkaBrokers is a comma-separated broker list. Empty disables booking event publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// BookingEventsTopic is the Kafka topic for booking events.
	BookingEventsTopic string `mapstructure:"BOOKING_EVENTS_TOPIC"`
	// Worker-only: consumer group and Loki push URL.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	LokiURL      string `mapstructure:"LOKI_URL"`

	// RedisAddr enables the per-client rate limiter when set.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MEETING_PROVIDER", MeetingProviderAuto)
	v.SetDefault("MEET_DOMAIN", "https://meet.google.com")
	v.SetDefault("ZOOM_ACCOUNT_ID", "")
	v.SetDefault("ZOOM_CLIENT_ID", "")
	v.SetDefault("ZOOM_CLIENT_SECRET", "")
	v.SetDefault("ZOOM_OAUTH_BASE_URL", "https://zoom.us")
	v.SetDefault("ZOOM_API_BASE_URL", "https://api.zoom.us/v2")
	v.SetDefault("ZOOM_MEETING_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("GOOGLE_OAUTH_CLIENT_ID", "")
	v.SetDefault("GOOGLE_OAUTH_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_OAUTH_REDIRECT_URI", "")
	v.SetDefault("GOOGLE_CALENDAR_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("GOOGLE_CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3")
	v.SetDefault("MAIL_FROM", "no-reply@example.com")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("BOOKING_EVENTS_TOPIC", "booking-events")
	v.SetDefault("KAFKA_GROUP_ID", "booking-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.MeetingProvider = strings.ToLower(strings.TrimSpace(cfg.MeetingProvider))
	switch cfg.MeetingProvider {
	case "":
		cfg.MeetingProvider = MeetingProviderAuto
	case MeetingProviderAuto, MeetingProviderGoogle, MeetingProviderZoom, MeetingProviderStub:
	default:
		return nil, errors.New("config: MEETING_PROVIDER must be one of auto, google, zoom, stub")
	}

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ZoomEnabled reports whether all Zoom server-to-server credentials are present.
func (c *Config) ZoomEnabled() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

// GoogleEnabled reports whether the Google OAuth client is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURI != ""
}

// SMTPEnabled reports whether notifications go out over SMTP.
func (c *Config) SMTPEnabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}
