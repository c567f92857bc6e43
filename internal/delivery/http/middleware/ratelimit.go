package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/delivery/http/dto"
	"github.com/gin-gonic/gin"
)

const maxTrackedClients = 10000

type windowCounter struct {
	count       int
	windowStart time.Time
}

// RateLimiter enforces a fixed-window per-client request cap. Clients are
// identified by a digest of IP and User-Agent so the tracking map never holds
// raw addresses.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCounter
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*windowCounter),
		limit:   limit,
		window:  window,
	}
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		id := clientID(c.ClientIP(), c.Request.UserAgent())
		allowed, retryAfter := rl.allow(id, time.Now())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(id string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	counter, ok := rl.clients[id]
	if !ok || now.Sub(counter.windowStart) >= rl.window {
		if len(rl.clients) >= maxTrackedClients {
			rl.evictExpired(now)
		}
		rl.clients[id] = &windowCounter{count: 1, windowStart: now}
		return true, 0
	}

	if counter.count >= rl.limit {
		return false, rl.window - now.Sub(counter.windowStart)
	}

	counter.count++
	return true, 0
}

// evictExpired runs under the lock. Dropping finished windows keeps the map
// bounded under an open set of client identities.
func (rl *RateLimiter) evictExpired(now time.Time) {
	for id, counter := range rl.clients {
		if now.Sub(counter.windowStart) >= rl.window {
			delete(rl.clients, id)
		}
	}
}

func clientID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}
