package interceptors

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

const bearerPrefix = "bearer "

// MsgUnauthenticated is returned when the Authorization header is missing or malformed.
const MsgUnauthenticated = "認証が必要です。"

// Authenticator resolves a bearer token to a customer.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*customerdomain.Customer, error)
}

// StaffAuthenticator resolves a staff bearer token to a staff member.
type StaffAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*staffdomain.Staff, error)
}

// Auth returns middleware that requires a valid Bearer access token and stores the customer in the context.
// Requests without a resolvable customer are aborted with 401.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			return
		}
		cust, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		setCustomer(c, cust)
		c.Next()
	}
}

// StaffAuth returns middleware that requires a valid staff access token and stores the staff member in the
// context. Customer tokens are rejected with 401.
func StaffAuth(authn StaffAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			return
		}
		st, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		setStaff(c, st)
		c.Next()
	}
}

// bearer returns the request's bearer token, or aborts with 401 when there is none.
func bearer(c *gin.Context) (string, bool) {
	token := extractBearer(c.GetHeader("Authorization"))
	if token == "" {
		RespondError(c, apperr.Unauthorized(MsgUnauthenticated))
		c.Abort()
		return "", false
	}
	return token, true
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
