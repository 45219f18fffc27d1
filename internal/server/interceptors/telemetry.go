package interceptors

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that reuses a well-formed inbound X-Request-ID or generates one,
// echoes it in the response, and tags the active span with it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(ginRequestIDKey, id)
		ctx := context.WithValue(c.Request.Context(), requestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("request.id", id))
		c.Next()
	}
}

// AccessLog returns middleware that logs one entry per request after the handler ran.
// 5xx responses log at error level with the errors attached by RespondError.
func AccessLog(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      c.FullPath(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(ginRequestIDKey),
		}
		if cust, ok := Customer(c); ok {
			fields["customer_id"] = cust.ID
		}
		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last().Err)
		}
		switch {
		case status >= 500:
			entry.Error("http: request failed")
		case status >= 400:
			entry.Warn("http: request rejected")
		default:
			entry.Info("http: request")
		}
	}
}
