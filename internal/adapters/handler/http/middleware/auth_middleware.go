package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
	"github.com/comitanigiacomo/kanso-progress/internal/metrics"
)

const (
	authorizationHeader = "Authorization"
	authorizationScheme = "Bearer"
	ContextUserIDKey    = "userID"
)

// TokenValidator resolves a bearer token to the id of an existing user.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

func unauthorized(c *gin.Context, reason, message string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// token's user id under ContextUserIDKey. The scheme is case-insensitive.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			unauthorized(c, "missing", "authorization header required")
			return
		}

		scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, authorizationScheme) || token == "" || strings.ContainsAny(token, " \t") {
			unauthorized(c, "malformed", "invalid authorization header format")
			return
		}

		userID, err := tokens.ValidateToken(token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				unauthorized(c, "invalid", "invalid or expired token")
				return
			}
			log.Printf("[AUTH] Token subject rejected: %v", err)
			unauthorized(c, "unknown_user", "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}
