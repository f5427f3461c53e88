package middleware

import (
	"net/http"
	"strings"

	"anoa.com/devconnector/pkg/response"
	"anoa.com/devconnector/pkg/token"
	"github.com/gin-gonic/gin"
)

// TokenHeader is the header the front end sends its token in.
const TokenHeader = "x-auth-token"

type AuthMiddleware struct {
	tokens *token.Service
}

func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.Msg(c, http.StatusUnauthorized, "No token, authorization denied")
			c.Abort()
			return
		}

		userID, err := m.tokens.Verify(tokenString)
		if err != nil {
			response.Msg(c, http.StatusUnauthorized, "Token is not valid")
			c.Abort()
			return
		}

		c.Set(response.ContextUserID, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(TokenHeader)); t != "" {
		return t
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	// Fallback to query parameter "token" (useful for WebSockets)
	return c.Query("token")
}
