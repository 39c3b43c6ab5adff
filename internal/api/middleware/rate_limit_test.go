package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUploadRateLimiter(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	t.Run("allows requests within the quota", func(t *testing.T) {
		limiter := NewUploadRateLimiter(3, time.Hour)
		handler := limiter.Handler(okHandler)

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/papers", nil)
			r.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(w, r)
			assert.Equal(t, http.StatusCreated, w.Code)
		}
	})

	t.Run("rejects requests over the quota", func(t *testing.T) {
		limiter := NewUploadRateLimiter(2, time.Hour)
		handler := limiter.Handler(okHandler)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/papers", nil)
			r.RemoteAddr = "10.0.0.2:1234"
			handler.ServeHTTP(w, r)
			assert.Equal(t, http.StatusCreated, w.Code)
		}

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/papers", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		limiter := NewUploadRateLimiter(1, time.Hour)
		handler := limiter.Handler(okHandler)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/papers", nil)
		r.RemoteAddr = "10.0.0.3:1234"
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		r = httptest.NewRequest(http.MethodPost, "/papers", nil)
		r.RemoteAddr = "10.0.0.4:1234"
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("uses forwarded client address when present", func(t *testing.T) {
		limiter := NewUploadRateLimiter(1, time.Hour)
		handler := limiter.Handler(okHandler)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/papers", nil)
		r.RemoteAddr = "10.0.0.5:1234"
		r.Header.Set("X-Forwarded-For", "203.0.113.9")
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		r = httptest.NewRequest(http.MethodPost, "/papers", nil)
		r.RemoteAddr = "10.0.0.6:1234"
		r.Header.Set("X-Forwarded-For", "203.0.113.9")
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
