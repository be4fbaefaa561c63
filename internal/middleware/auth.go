package middleware

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"adaptive-dice-backend/internal/services"
)

// RateLimiter counts requests per subject and action.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error)
}

// TableAuthMiddleware only lets through requests carrying the owner token
// of the table named by the :id route parameter.
func TableAuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if claims.TableID != c.Param("id") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Token does not own this table"})
			c.Abort()
			return
		}

		c.Set("table_id", claims.TableID)

		c.Next()
	}
}

// RateLimitMiddleware limits each table to limit requests per window for
// every action (the last path segment). A failing limiter lets requests
// through.
func RateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID := c.GetString("table_id")
		if tableID == "" || limiter == nil {
			c.Next()
			return
		}

		action := path.Base(c.Request.URL.Path)
		if c.Request.Method == http.MethodDelete {
			action = "delete"
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), tableID, action, limit, window)
		if err == nil && !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       services.ErrRateLimited.Error(),
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
