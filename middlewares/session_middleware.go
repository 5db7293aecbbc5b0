package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-storefront/utils"
)

// ContextSessionKey is the gin context key holding the caller's session.
const ContextSessionKey = "session_key"

// SessionMiddleware resolves the storefront session from a bearer token. The
// token query parameter is accepted for websocket upgrades.
func SessionMiddleware(tokens *utils.SessionTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("session token missing"))
			c.Abort()
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims.SessionKey)
		c.Next()
	}
}

// SessionKey returns the session resolved by SessionMiddleware.
func SessionKey(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
