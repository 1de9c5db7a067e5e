// ratelimit.go - Sliding-window rate limiter by client IP.
//
// Applied to the credential endpoints (login, signup) to slow brute
// force and enumeration attempts; designed to complement proxy-side
// limits, not replace them.
package server

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter tracks request timestamps per IP in memory with periodic
// cleanup of idle entries.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string][]time.Time
	rate     int           // requests allowed per window
	window   time.Duration // window length
	now      func() time.Time
}

// newRateLimiter allows 'rate' requests per 'window' per IP.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string][]time.Time),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
	go rl.cleanupLoop()
	return rl
}

// middleware enforces the limit and answers 429 when exceeded.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow records a request for ip and reports whether it is within the
// window budget.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.visitors[ip][:0]
	for _, t := range rl.visitors[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.rate {
		rl.visitors[ip] = kept
		return false
	}
	rl.visitors[ip] = append(kept, now)
	return true
}

// cleanupLoop drops IPs with no requests inside the window.
func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-rl.window)
		for ip, times := range rl.visitors {
			live := false
			for _, t := range times {
				if t.After(cutoff) {
					live = true
					break
				}
			}
			if !live {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
