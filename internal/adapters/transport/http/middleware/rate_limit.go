package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/response"
)

// RedisRateLimit is a fixed-window per-IP limiter shared across instances.
// Each window is a redis counter keyed by prefix and client IP; the key
// expires with the window, so there is nothing to sweep.
func RedisRateLimit(client *redis.Client, prefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", prefix, clientIP(c))

		n, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Redis being down must not lock everyone out.
			c.Next()
			return
		}
		if n == 1 {
			client.Expire(c.Request.Context(), key, window)
		}
		if n > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Success:    false,
				StatusCode: http.StatusTooManyRequests,
				Message:    "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}

// LocalRateLimitPerIP is the in-process fallback when no redis address is
// configured: token buckets in an expiring LRU keyed by client IP.
func LocalRateLimitPerIP(limit, burst, cacheSize int, entryTTL time.Duration) gin.HandlerFunc {
	visitors := lru.NewLRU[string, *rate.Limiter](cacheSize, nil, entryTTL)

	return func(c *gin.Context) {
		ip := clientIP(c)

		lim, found := visitors.Get(ip)
		if !found {
			lim = rate.NewLimiter(rate.Limit(limit), burst)
			visitors.Add(ip, lim)
		}

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Success:    false,
				StatusCode: http.StatusTooManyRequests,
				Message:    "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
