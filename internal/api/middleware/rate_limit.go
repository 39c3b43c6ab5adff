package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/reslab/paperlens/internal/api"
	"github.com/reslab/paperlens/internal/domain"
)

// UploadRateLimiter enforces a fixed per-client upload quota over a rolling
// window. Clients are keyed by IP.
type UploadRateLimiter struct {
	quota  int
	window time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewUploadRateLimiter creates a limiter allowing quota requests per window
// per client IP.
func NewUploadRateLimiter(quota int, window time.Duration) *UploadRateLimiter {
	if quota <= 0 {
		quota = 20
	}
	if window <= 0 {
		window = time.Hour
	}
	return &UploadRateLimiter{
		quota:    quota,
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *UploadRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.window/time.Duration(l.quota)), l.quota)
		l.limiters[ip] = lim
	}
	return lim
}

// Handler rejects requests over the quota with 429.
func (l *UploadRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(clientIP(r)).Allow() {
			api.HandleError(w, domain.ErrUploadQuotaExceeded)
			return
		}
		next.ServeHTTP(w, r)
	})
}
