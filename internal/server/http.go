// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"slot-booking/backend/internal/googleoauth"
	healthhandler "slot-booking/backend/internal/health/handler"
	identityhandler "slot-booking/backend/internal/identity/handler"
	"slot-booking/backend/internal/server/interceptors"
	sessionhandler "slot-booking/backend/internal/session/handler"
	staffhandler "slot-booking/backend/internal/staff/handler"
)

// Auth is what the router needs from the customer auth service.
type Auth interface {
	identityhandler.AuthService
	interceptors.Authenticator
}

// StaffAuth is what the router needs from the staff auth service.
type StaffAuth interface {
	identityhandler.StaffAuthService
	interceptors.StaffAuthenticator
}

// Deps holds the collaborators mounted by NewRouter.
type Deps struct {
	Auth Auth
	// StaffAuth serves staff login. If nil, /staff/auth and the consent URL route are not mounted.
	StaffAuth StaffAuth
	Sessions  sessionhandler.Service
	Staff     staffhandler.Lister
	// Google serves the calendar link flow. If nil, the /google routes are not mounted.
	Google *googleoauth.Handler
	Health *healthhandler.Server
	// RateLimiter is optional. If nil, requests are not limited.
	RateLimiter *interceptors.RateLimiter
	// FrontendOrigin is allowed for cross-origin requests.
	FrontendOrigin string
	Logger         logrus.FieldLogger
}

// NewRouter returns the gin engine serving the JSON API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), interceptors.RequestID(), interceptors.AccessLog(d.Logger), interceptors.CORS(d.FrontendOrigin))

	r.GET("/healthz", d.Health.Healthz)
	r.GET("/readyz", d.Health.Readyz)

	limit := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware()
	}
	requireAuth := interceptors.Auth(d.Auth)

	identityhandler.NewHandler(d.Auth).Register(r.Group("/auth", limit))
	r.GET("/staff", requireAuth, limit, staffhandler.NewHandler(d.Staff).List)
	sessionhandler.NewHandler(d.Sessions).Register(r.Group("/sessions", requireAuth, limit))

	if d.StaffAuth != nil {
		identityhandler.NewStaffHandler(d.StaffAuth).Register(r.Group("/staff/auth", limit))
	}
	if d.Google != nil {
		g := r.Group("/google/oauth")
		if d.StaffAuth != nil {
			g.GET("/url", interceptors.StaffAuth(d.StaffAuth), limit, d.Google.URL)
		}
		g.GET("/callback", limit, d.Google.Callback)
	}
	return r
}

// Instrument wraps the router with otelhttp server spans and metrics.
func Instrument(h http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(h, operation)
}
