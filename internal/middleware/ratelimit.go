package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"auditorium/internal/service"
	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "auditorium:ratelimit:"
	defaultRPS         = 5
	localIdleAfter     = 10 * time.Minute
	localPruneAt       = 4096
	redisBudget        = 100 * time.Millisecond
)

// bucketScript is a token bucket kept in one hash per caller.
// KEYS[1]=bucket ARGV: rate, capacity, now (seconds)
// Returns { allowed, remaining, retry_after_ms }.
var bucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    retry_ms = math.ceil((1 - tokens) / rate * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("EXPIRE", KEYS[1], math.ceil(capacity / rate) * 2)
return { allowed, math.floor(tokens), retry_ms }
`)

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out token-bucket middleware. Buckets live in Redis when
// a scripter is given and fall back to process memory when it is nil or
// failing.
type RateLimiter struct {
	rdb   redis.Scripter
	rps   int
	burst int

	mu    sync.Mutex
	local map[string]*localBucket
}

func NewRateLimiter(rdb redis.Scripter, requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRPS
	}
	return &RateLimiter{
		rdb:   rdb,
		rps:   requestsPerSecond,
		burst: requestsPerSecond,
		local: make(map[string]*localBucket),
	}
}

// Handler limits one scope. Signed-in callers are bucketed by user id,
// everyone else by client IP.
func (l *RateLimiter) Handler(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + callerKey(c)
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.rps))

		allowed, remaining, retryAfter := l.take(c.Request.Context(), key)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			AbortWithError(c, http.StatusTooManyRequests, constraints.CodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if op := service.GetOperatorInfo(c.Request.Context()); op != nil && op.UserID != "" {
		return "user:" + op.UserID
	}
	return "ip:" + c.ClientIP()
}

func (l *RateLimiter) take(ctx context.Context, key string) (bool, int, time.Duration) {
	if l.rdb == nil {
		return l.takeLocal(key)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisBudget)
	defer cancel()

	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := bucketScript.Run(ctx, l.rdb, []string{rateLimitKeyPrefix + key}, l.rps, l.burst, now).Int64Slice()
	if err != nil || len(res) != 3 {
		logger.Warn("redis rate limit unavailable, using local bucket",
			zap.String("key", key),
			zap.Error(err))
		return l.takeLocal(key)
	}
	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond
}

func (l *RateLimiter) takeLocal(key string) (bool, int, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.local[key]
	if !ok {
		if len(l.local) >= localPruneAt {
			l.pruneLocked(now)
		}
		b = &localBucket{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.local[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(b.limiter.TokensAt(now)), 0
}

// pruneLocked must be called with mu held.
func (l *RateLimiter) pruneLocked(now time.Time) {
	for k, b := range l.local {
		if now.Sub(b.lastSeen) > localIdleAfter {
			delete(l.local, k)
		}
	}
}
