package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds the token bucket settings applied per client address.
type Config struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// PerMinute converts a requests-per-minute budget to a rate.Limit.
func PerMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	config Config
	logger *zerolog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewLimiter starts a background goroutine that evicts idle clients; call Stop to end it.
func NewLimiter(cfg Config, logger *zerolog.Logger) *Limiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		config:  cfg,
		logger:  logger,
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go l.cleanupLoop()

	return l
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Middleware responds 429 once a client exhausts its bucket.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		if !l.limiterFor(key).Allow() {
			l.logger.Warn().
				Str("client", key).
				Str("path", r.URL.Path).
				Msg("rate limit exceeded")
			writeRateLimitResponse(w, l.config.Rate)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientCount reports how many client buckets are tracked.
func (l *Limiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cl, ok := l.clients[key]; ok {
		cl.lastAccess = l.now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(l.config.Rate, l.config.Burst)
	l.clients[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: l.now(),
	}

	return limiter
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for more than two cleanup intervals.
func (l *Limiter) cleanup() {
	ttl := l.config.CleanupInterval * 2
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, cl := range l.clients {
		if now.Sub(cl.lastAccess) > ttl {
			delete(l.clients, key)
		}
	}
}

// clientKey expects chi's RealIP middleware to have normalised RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
		if retryAfterSec < 1 {
			retryAfterSec = 1
		}
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  http.StatusTooManyRequests,
		"message": "Too many requests. Please try again later.",
	})
}
