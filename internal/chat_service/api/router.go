package api

import (
	"docchat/pkg/circuitbreaker"
	"docchat/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes for the chat service. The rate
// limiter and circuit breaker guard the HTTP API only; the WebSocket route
// is long-lived and stays outside both. A nil limiter or breaker disables
// that middleware.
func RegisterRoutes(router *gin.Engine, a *API, limiter ratelimiter.RateLimiter, breaker circuitbreaker.CircuitBreaker) {
	router.GET("/", a.IndexHandler)

	v1 := router.Group("/api/v1")
	v1.Use(RequestLog(a.logger))
	if limiter != nil {
		v1.Use(RateLimit(limiter))
	}
	if breaker != nil {
		v1.Use(CircuitBreak(breaker))
	}
	{
		v1.POST("/documents", a.UploadHandler)
		v1.POST("/ask", a.AskHandler)
	}

	router.GET("/ws/:session_id", a.WebSocketHandler)
}
