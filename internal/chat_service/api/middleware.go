package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"docchat/internal/models"
	"docchat/pkg/circuitbreaker"
	"docchat/pkg/logger"
	"docchat/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RequestLog emits one structured log entry per completed request.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := log.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			entry.WithError(models.ErrorInfo{
				Message:    c.Errors.String(),
				StatusCode: status,
			}).Error("Request failed")
			return
		}
		entry.Info("Request completed with status " + strconv.Itoa(status))
	}
}

// RateLimit rejects requests with 429 when the limiter denies them.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

// CircuitBreak runs the handler chain through the circuit breaker, counting
// 5xx responses as failures. An open circuit short-circuits with 503.
func CircuitBreak(breaker circuitbreaker.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := breaker.Execute(func() (interface{}, error) {
			c.Next()
			if status := c.Writer.Status(); status >= http.StatusInternalServerError {
				return nil, fmt.Errorf("server error: status code %d", status)
			}
			return nil, nil
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable: Circuit Breaker is open"})
		}
	}
}
