package http

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// CORSMiddleware answers browser preflight requests and echoes allowed origins.
// "*" in allowed admits any origin.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(allowed, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// IPAllowListMiddleware rejects clients the access list does not admit.
func IPAllowListMiddleware(access *AccessList, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !access.Allowed(ip) {
			logger.Warn().Str("client_ip", ip).Str("path", c.Request.URL.Path).Msg("access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
			return
		}
		c.Next()
	}
}
