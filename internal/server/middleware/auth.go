package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenValidator reports whether a presented bearer token is acceptable.
type TokenValidator func(token string) bool

// StaticKeyValidator accepts the configured action API key or the server's
// own cached session token. An empty candidate never matches.
func StaticKeyValidator(apiKey string, sessionToken func() string) TokenValidator {
	return func(token string) bool {
		if token == "" {
			return false
		}
		if apiKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1 {
			return true
		}
		if current := sessionToken(); current != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(current)) == 1 {
			return true
		}
		return false
	}
}

// BearerAuth enforces bearer token authentication on protected routes.
func BearerAuth(validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if !validate(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid or missing bearer token",
			})
			return
		}

		c.Next()
	}
}
