// Server runs the booking JSON API on HTTP_ADDR and the gRPC health service on GRPC_ADDR.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"slot-booking/backend/internal/config"
	customerrepo "slot-booking/backend/internal/customer/repository"
	"slot-booking/backend/internal/db"
	"slot-booking/backend/internal/emaillog"
	emaillogrepo "slot-booking/backend/internal/emaillog/repository"
	"slot-booking/backend/internal/googleoauth"
	healthhandler "slot-booking/backend/internal/health/handler"
	identityservice "slot-booking/backend/internal/identity/service"
	"slot-booking/backend/internal/logging"
	"slot-booking/backend/internal/mail"
	"slot-booking/backend/internal/meeting"
	"slot-booking/backend/internal/meeting/tokencache"
	"slot-booking/backend/internal/security"
	"slot-booking/backend/internal/server"
	"slot-booking/backend/internal/server/interceptors"
	sessionrepo "slot-booking/backend/internal/session/repository"
	sessionservice "slot-booking/backend/internal/session/service"
	"slot-booking/backend/internal/slot"
	staffrepo "slot-booking/backend/internal/staff/repository"
	"slot-booking/backend/internal/telemetry"
	oteltelemetry "slot-booking/backend/internal/telemetry/otel"
	"slot-booking/backend/internal/telemetry/producer"
)

const (
	serviceName    = "slot-booking-api"
	healthInterval = 15 * time.Second
	shutdownGrace  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := oteltelemetry.NewProviders(ctx, oteltelemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("telemetry: setup failed")
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db: open failed")
	}
	defer conn.Close()

	sessions := sessionrepo.NewPostgresRepository(conn)
	staff := staffrepo.NewPostgresRepository(conn)
	customers := customerrepo.NewPostgresRepository(conn)
	emailLogs := emaillogrepo.NewPostgresRepository(conn)
	policy := slot.DefaultPolicy()

	googleConf := googleoauth.NewConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	meetings := meeting.Select(cfg.MeetingProvider,
		meeting.NewGoogleProvider(googleConf, cfg.GoogleCalendarBaseURL, cfg.GoogleCalendarTimezone, logger),
		meeting.NewZoomProvider(cfg.ZoomAccountID, cfg.ZoomClientID, cfg.ZoomClientSecret,
			cfg.ZoomOAuthBaseURL, cfg.ZoomAPIBaseURL, cfg.ZoomMeetingTimezone, tokencache.New(), logger),
		meeting.NewStubProvider(cfg.MeetDomain, logger),
		logger,
	)

	var sender mail.Sender = mail.NewConsoleSender(cfg.MailFrom, logger)
	if cfg.SMTPEnabled() {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, policy.Location)
	}

	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.BookingEventsTopic)
	emitters := []telemetry.EventEmitter{oteltelemetry.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}

	bookings := sessionservice.NewSessionService(sessionservice.Deps{
		Sessions:  sessions,
		Staff:     staff,
		Meetings:  meetings,
		Notifier:  emaillog.NewRecorder(sender, emailLogs, logger),
		EmailLogs: emailLogs,
		Emitter:   telemetry.Multi(emitters...),
		Meter:     otel.Meter("slot-booking/session"),
		Policy:    policy,
		Logger:    logger,
	})

	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	auth := identityservice.NewAuthService(customers, hasher, tokens, logger)
	staffAuth := identityservice.NewStaffAuthService(staff, hasher, tokens, logger)

	health := healthhandler.NewServer(conn, logger)
	go health.Run(ctx, healthInterval)

	deps := server.Deps{
		Auth:           auth,
		StaffAuth:      staffAuth,
		Sessions:       bookings,
		Staff:          staff,
		Health:         health,
		FrontendOrigin: cfg.FrontendOrigin,
		Logger:         logger,
	}
	if googleConf != nil {
		oauthSvc := googleoauth.NewService(googleConf, tokens, staff, logger)
		deps.Google = googleoauth.NewHandler(oauthSvc, cfg.FrontendOrigin, logger)
	}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		deps.RateLimiter = interceptors.NewRateLimiter(interceptors.NewRedisCounter(rdb), cfg.RateLimitPerMinute, logger)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Instrument(server.NewRouter(deps), serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "meeting_provider": meetings.Name()}).Info("http: listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http: serve failed")
			stop()
		}
	}()

	grpcSrv := server.NewGRPCServer(health.GRPC())
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.WithError(err).Fatal("grpc: listen failed")
		}
		go func() {
			logger.WithField("addr", cfg.GRPCAddr).Info("grpc: health listening")
			if err := grpcSrv.Serve(lis); err != nil {
				logger.WithError(err).Error("grpc: serve failed")
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http: shutdown")
	}
	grpcSrv.GracefulStop()

	// Let in-flight booking events finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		logger.WithError(err).Warn("kafka: close")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelFlush()
	if err := providers.Shutdown(flushCtx); err != nil {
		logger.WithError(err).Warn("telemetry: shutdown")
	}
}
