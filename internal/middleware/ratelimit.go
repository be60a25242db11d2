package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Yiling-J/theine-go"
	"golang.org/x/time/rate"
)

// maxClients bounds the number of per-IP limiters kept in memory.
const maxClients = 10000

type ipLimiter struct {
	limiters *theine.LoadingCache[string, *rate.Limiter]
}

// newIPLimiter keeps each limiter for ttl after its creation. A limiter
// dropped after ttl has refilled its burst by then, so a client gains
// nothing from the eviction.
func newIPLimiter(r rate.Limit, burst int, ttl time.Duration) (*ipLimiter, error) {
	cache, err := theine.NewBuilder[string, *rate.Limiter](maxClients).BuildWithLoader(func(ctx context.Context, ip string) (theine.Loaded[*rate.Limiter], error) {
		return theine.Loaded[*rate.Limiter]{
			Value: rate.NewLimiter(r, burst),
			Cost:  1,
			TTL:   ttl,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not build rate limiter cache: %w", err)
	}
	return &ipLimiter{limiters: cache}, nil
}

func (ipl *ipLimiter) allow(ctx context.Context, ip string) bool {
	l, err := ipl.limiters.Get(ctx, ip)
	if err != nil || l == nil {
		return false
	}
	return l.Allow()
}

// RateLimit allows each client IP perMinute requests per minute, bursting
// up to the same amount.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	il, err := newIPLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute, time.Minute)
	if err != nil {
		panic(err)
	}
	return il.middleware
}

func (ipl *ipLimiter) middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ipl.allow(r.Context(), clientIP(r)) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
