package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

// slidingWindow removes entries older than the window, then admits the
// request when fewer than limit entries remain.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return 1
	end

	return 0
`)

// RedisRateLimiter is a sliding window limiter shared by all console replicas.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
	seq    atomic.Uint64
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		prefix: "rl:chat-admin:",
	}
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	KeyFn  func(r *http.Request) string
}

// Middleware enforces cfg. Redis failures fail open.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.isAllowed(r.Context(), l.prefix+cfg.KeyFn(r), cfg.Limit, cfg.Window)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}

			tooMany(w, cfg.Window)
		})
	}
}

func (l *RedisRateLimiter) isAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	result, err := slidingWindow.Run(ctx, l.rdb, []string{key},
		now, now-window.Milliseconds(), limit, window.Milliseconds(), member).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// LoginRateLimit limits credential submissions per client IP. With Redis the
// window is shared across replicas, otherwise an in-process limiter is used.
func LoginRateLimit(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if rdb == nil {
		return httprate.Limit(limit, window,
			httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return KeyByIP(r), nil }),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) { tooMany(w, window) }),
		)
	}
	return NewRedisRateLimiter(rdb).Middleware(RateLimitConfig{
		Limit:  limit,
		Window: window,
		KeyFn:  func(r *http.Request) string { return "login:" + KeyByIP(r) },
	})
}

// KeyByIP returns the first X-Forwarded-For hop, falling back to the peer address.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func tooMany(w http.ResponseWriter, window time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
	http.Error(w, "Too many attempts, please wait a moment and try again.", http.StatusTooManyRequests)
}
