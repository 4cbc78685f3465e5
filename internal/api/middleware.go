package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type ctxKey int

const authKey ctxKey = iota

// Authenticate marks the request as authenticated when it carries the
// configured bearer token. Requests without it continue anonymously.
func Authenticate(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok := false
			if apiKey != "" {
				if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
					ok = subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authKey, ok)))
		})
	}
}

// IsAuthenticated reports what Authenticate decided for r.
func IsAuthenticated(r *http.Request) bool {
	ok, _ := r.Context().Value(authKey).(bool)
	return ok
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r) {
			jsonError(w, "Only authenticated user can access this endpoint.", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FreePayloadLimit rejects anonymous requests whose body is limit bytes or
// larger. Authenticated requests pass untouched.
func FreePayloadLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength >= limit {
				jsonError(w, "Payload too large for free user", http.StatusRequestEntityTooLarge)
				return
			}
			if r.ContentLength < 0 {
				// Unknown length; decodeJSON reports the overflow.
				r.Body = http.MaxBytesReader(w, r.Body, limit-1)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client and auth state.
type RateLimiter struct {
	buckets *lru.Cache[string, *rate.Limiter]
	auth    rate.Limit
	authB   int
	anon    rate.Limit
	anonB   int
}

// NewRateLimiter allows authPerSecond requests a second to authenticated
// clients and anonPerMinute a minute to everyone else. At most size clients
// are tracked; the least recently seen bucket is dropped first.
func NewRateLimiter(authPerSecond, anonPerMinute, size int) (*RateLimiter, error) {
	buckets, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, fmt.Errorf("rate limiter cache: %w", err)
	}
	return &RateLimiter{
		buckets: buckets,
		auth:    rate.Limit(authPerSecond),
		authB:   max(authPerSecond, 1),
		anon:    rate.Every(time.Minute / time.Duration(max(anonPerMinute, 1))),
		anonB:   max(anonPerMinute, 1),
	}, nil
}

func (l *RateLimiter) limiter(key string, authed bool) *rate.Limiter {
	if lim, ok := l.buckets.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(l.anon, l.anonB)
	if authed {
		lim = rate.NewLimiter(l.auth, l.authB)
	}
	if prev, found, _ := l.buckets.PeekOrAdd(key, lim); found {
		return prev
	}
	return lim
}

// Middleware answers 429 once a client's bucket is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed := IsAuthenticated(r)
		lim := l.limiter(rateKey(r, authed), authed)
		res := lim.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", fmt.Sprint(int(math.Ceil(delay.Seconds()))))
			jsonError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rateKey(r *http.Request, authed bool) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if authed {
		return host + "_authenticated"
	}
	return host + "_unauthenticated"
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
