package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"factory-assistant/internal/auth"
	"factory-assistant/internal/model"
)

const (
	principalKey = "principal"
	authHeader   = "Authorization"
	bearerPrefix = "Bearer"
)

// Auth attaches the token principal when a bearer token is sent. Requests without a
// token pass through anonymously; a malformed or invalid token is rejected.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(authHeader)
		if raw == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := parser.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, model.Principal{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

func Principal(c *gin.Context) (model.Principal, bool) {
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
