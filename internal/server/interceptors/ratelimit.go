package interceptors

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MsgRateLimited is returned with 429.
const MsgRateLimited = "リクエストが多すぎます。しばらくしてから再度お試しください。"

// Counter increments the hit count of key in a window that expires after ttl.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisCounter is a Counter backed by a Redis INCR + PEXPIRE script, shared across API instances.
type RedisCounter struct {
	rdb redis.Scripter
}

// NewRedisCounter returns a Counter using rdb.
func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr implements Counter.
func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("ratelimit: unexpected script result %T", res)
	}
}

// RateLimiter is a fixed-window per-client limiter. It fails open when the counter is unavailable.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewRateLimiter allows limit requests per client per minute. A non-positive limit defaults to 120.
func NewRateLimiter(counter Counter, limit int, logger logrus.FieldLogger) *RateLimiter {
	if limit <= 0 {
		limit = 120
	}
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  time.Minute,
		prefix:  "rl:slot-booking",
		logger:  logger,
		now:     time.Now,
	}
}

// Middleware returns the gin middleware. Authenticated requests are keyed by customer, others by client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := "ip:" + c.ClientIP()
		if cust, ok := Customer(c); ok {
			client = "customer:" + cust.ID
		}
		bucket := l.now().UnixNano() / int64(l.window)
		key := l.prefix + ":" + client + ":" + strconv.FormatInt(bucket, 10)

		count, err := l.counter.Incr(c.Request.Context(), key, l.window)
		if err != nil {
			l.logger.WithError(err).Warn("ratelimit: counter unavailable, allowing request")
			c.Next()
			return
		}
		if count > int64(l.limit) {
			c.Header("Retry-After", strconv.Itoa(int(l.window/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{
				StatusCode: http.StatusTooManyRequests,
				Message:    MsgRateLimited,
				Error:      http.StatusText(http.StatusTooManyRequests),
			})
			return
		}
		c.Next()
	}
}
