package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const tokenKey = "bearer_token"

// BearerToken extracts the request's bearer token and stores it in the
// context for downstream handlers. It never rejects by itself; pair it
// with RequireAuth on protected routes.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
			c.Set(tokenKey, token)
		}
		c.Next()
	}
}

// RequireAuth rejects requests carrying no bearer token. Capabilities,
// availability and the OpenAPI document stay outside this middleware.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Token(c) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// Token returns the bearer token extracted by BearerToken, or "".
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
