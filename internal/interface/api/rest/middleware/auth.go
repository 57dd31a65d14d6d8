package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// UploadAuthMiddleware guards mutating link endpoints with the shared
// upload secret, presented as a bearer token.
func UploadAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token format"},
			)
			return
		}

		if !secretMatches(secret, token) {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid upload secret"},
			)
			return
		}

		c.Next()
	}
}

// secretMatches accepts either a plain secret or a bcrypt hash in the
// configuration, so the plain value never has to live in the environment.
func secretMatches(configured, presented string) bool {
	if strings.HasPrefix(configured, "$2a$") ||
		strings.HasPrefix(configured, "$2b$") ||
		strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(presented)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
