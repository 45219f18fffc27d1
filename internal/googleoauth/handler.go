package googleoauth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/server/interceptors"
)

// Handler serves the consent URL and the OAuth redirect target.
type Handler struct {
	svc            *Service
	frontendOrigin string
	logger         logrus.FieldLogger
}

// NewHandler returns a Handler redirecting back to frontendOrigin after the callback.
func NewHandler(svc *Service, frontendOrigin string, logger logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, frontendOrigin: strings.TrimRight(frontendOrigin, "/"), logger: logger}
}

// URL handles GET /google/oauth/url. The consent is always for the staff member authenticated by
// interceptors.StaffAuth; any staffId query parameter is ignored.
func (h *Handler) URL(c *gin.Context) {
	st, ok := interceptors.Staff(c)
	if !ok {
		interceptors.RespondError(c, apperr.Unauthorized(interceptors.MsgUnauthenticated))
		return
	}
	u, err := h.svc.AuthURL(c.Request.Context(), st.ID)
	if err != nil {
		interceptors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}

// Callback handles GET /google/oauth/callback?code&state. It always redirects to the frontend.
func (h *Handler) Callback(c *gin.Context) {
	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		h.redirect(c, "error")
		return
	}
	if err := h.svc.HandleCallback(c.Request.Context(), code, state); err != nil {
		h.logger.WithError(err).Warn("googleoauth: callback failed")
		h.redirect(c, "error")
		return
	}
	h.redirect(c, "success")
}

func (h *Handler) redirect(c *gin.Context, outcome string) {
	c.Redirect(http.StatusFound, h.frontendOrigin+"/sessions?google="+outcome)
}
