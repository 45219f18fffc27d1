package interceptors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
)

// MsgInternal is shown for failures that carry no user-visible message.
const MsgInternal = "サーバーエラーが発生しました。"

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// StatusFor maps the kind of err to its HTTP status. The outermost apperr.Error decides, so an internal
// failure wrapping a user error still answers 500.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrProvisioning:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as JSON. The error is attached to the gin context so AccessLog records the cause;
// only the localized message reaches the client.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := StatusFor(err)
	c.JSON(status, ErrorBody{
		StatusCode: status,
		Message:    apperr.Message(err, MsgInternal),
		Error:      http.StatusText(status),
	})
}
