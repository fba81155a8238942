package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mailstudio/builder/internal/config"
)

// clientLimiter stores rate limiters for a specific client.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware applies a two-tier token bucket per client IP: the
// soft limiter delays bursts, the hard limiter rejects clients that keep
// pushing past it.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
	}
	// Start a background goroutine to clean up old client entries
	go rm.cleanupClients()
	return rm
}

// getClientLimiter retrieves or creates the rate limiters for a client IP.
func (rm *RateLimiterMiddleware) getClientLimiter(ip string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[ip]
	if !exists {
		cl = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitSoftRefillRate), rm.cfg.RateLimitSoftBucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitHardRefillRate), rm.cfg.RateLimitHardBucketSize),
		}
		rm.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl
}

// cleanupClients periodically drops limiters for clients not seen recently.
func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(time.Minute)

		rm.mu.Lock()
		cutoff := time.Now().Add(-3 * time.Minute)
		for ip, cl := range rm.clients {
			if cl.lastSeen.Before(cutoff) {
				delete(rm.clients, ip)
			}
		}
		rm.mu.Unlock()
	}
}

// Limit returns the gin middleware enforcing the limits.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := rm.getClientLimiter(c.ClientIP())

		if !cl.hardLimiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		// The soft limiter delays rather than rejects, smoothing bursts
		// without failing user actions.
		if err := cl.softLimiter.Wait(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}
