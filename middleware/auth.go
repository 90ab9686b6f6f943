package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/types"
)

const principalKey = "principal"

// TokenVerifier turns a bearer token into the caller identity
type TokenVerifier interface {
	Verify(token string) (types.Principal, error)
}

// GetPrincipal returns the authenticated caller, if any
func GetPrincipal(c *gin.Context) (types.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return types.Principal{}, false
	}
	principal, ok := value.(types.Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", false
	}
	return strings.TrimSpace(tokenString), true
}

func abortUnauthorized(c *gin.Context, short, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   short,
		"message": message,
		"detail":  message,
	})
	c.Abort()
}

// AuthMiddleware requires a valid bearer token and stores the principal
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authorization required", "Token must be in format: Bearer <token>")
			return
		}

		principal, err := verifier.Verify(tokenString)
		if err != nil {
			log.WithError(err).WithField("path", c.Request.URL.Path).Debug("Rejected bearer token")
			abortUnauthorized(c, "Invalid token", "Token is invalid or expired")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuthMiddleware stores the principal when a valid token is sent and
// lets anonymous requests through otherwise
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if principal, err := verifier.Verify(tokenString); err == nil {
			c.Set(principalKey, principal)
		}
		c.Next()
	}
}

// WebSocketAuthMiddleware accepts the token from the query string since
// browsers cannot set headers on websocket upgrades
func WebSocketAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			tokenString, _ = bearerToken(c)
		}
		if tokenString == "" {
			abortUnauthorized(c, "Token required", "Please provide a valid token in query parameters")
			return
		}

		principal, err := verifier.Verify(tokenString)
		if err != nil {
			log.WithError(err).Debug("🔌 Rejected websocket token")
			abortUnauthorized(c, "Invalid token", "Token is invalid or expired")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after one
// of the auth middlewares.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortUnauthorized(c, "Authorization required", "Admin access requires a valid token")
			return
		}
		if !principal.IsAdmin() {
			log.WithField("user_id", principal.UserID).Warn("🚫 Non-admin tried an admin endpoint")
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Admin access required",
				"detail":  "Admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminChain returns the handlers guarding admin routes. With enforcement
// off the routes are public.
func AdminChain(verifier TokenVerifier, enforce bool) []gin.HandlerFunc {
	if !enforce {
		return nil
	}
	return []gin.HandlerFunc{AuthMiddleware(verifier), RequireAdmin()}
}
