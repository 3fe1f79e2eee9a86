package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter allows one request per client every limit. Clients are keyed by
// the X-Client-ID header, falling back to the remote IP. A zero limit disables it.
type RateLimiter struct {
	clients map[string]time.Time
	mu      sync.Mutex
	limit   time.Duration
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]time.Time),
		limit:   limit,
	}
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit <= 0 {
			c.Next()
			return
		}
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			clientID = c.ClientIP()
		}
		now := time.Now()
		r.mu.Lock()
		last, exists := r.clients[clientID]
		if exists && now.Sub(last) < r.limit {
			r.mu.Unlock()
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.clients[clientID] = now
		r.evict(now)
		r.mu.Unlock()
		c.Next()
	}
}

// evict drops clients idle for more than 100 limits; caller holds mu.
func (r *RateLimiter) evict(now time.Time) {
	if len(r.clients) < 1024 {
		return
	}
	for id, last := range r.clients {
		if now.Sub(last) > 100*r.limit {
			delete(r.clients, id)
		}
	}
}
