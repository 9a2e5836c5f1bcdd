package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet-analytics-service/internal/auth"
	"fleet-analytics-service/internal/model"
)

const (
	claimsKey    = "tokenClaims"
	principalKey = "principal"
	authHeader   = "Authorization"
	bearerPrefix = "Bearer"
)

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(authHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		principal, err := claims.Principal()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, principal)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	if !ok {
		return model.Principal{}, false
	}
	return principal, true
}
