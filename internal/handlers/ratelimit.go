package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// registerRateLimit bounds register attempts per client IP. Keeps a
// misbehaving retry loop from hammering the transaction path; well-behaved
// clients never see it.
func (h *Handler) registerRateLimit() gin.HandlerFunc {
	limiter := newIPLimiter(h.cfg.RegisterRatePerSec, h.cfg.RegisterBurst)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			h.errorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many registration attempts, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
