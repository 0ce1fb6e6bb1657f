package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	usernameContextKey  = "auth_username"
	authTokenContextKey = "auth_token"
)

// Middleware validates session tokens and stores the authenticated username
// in the context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken := s.extractToken(c)
		if authToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		username, err := s.ValidateToken(c.Request.Context(), authToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(usernameContextKey, username)
		c.Set(authTokenContextKey, authToken)
		c.Next()
	}
}

// UsernameFromContext retrieves the authenticated username from the gin context.
func UsernameFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(usernameContextKey)
	if !ok {
		return "", false
	}
	username, ok := val.(string)
	return username, ok
}

// AuthTokenFromContext retrieves the session token captured by the middleware.
func AuthTokenFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(authTokenContextKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

func (s *Service) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader(s.headerName)
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if token, err := c.Cookie(s.cookieName); err == nil && token != "" {
		return token
	}
	return ""
}
