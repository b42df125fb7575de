package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/response"
)

const (
	// ContextKeySession is the Gin context key for the caller's auth.Session.
	ContextKeySession = "session"
)

// RequireSession resolves the bearer identity token into a logged-in session.
// WebSocket upgrades, which cannot set headers, pass it as ?token=.
func RequireSession(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		session, err := manager.Resume(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenInvalid):
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		case errors.Is(err, auth.ErrSessionNotFound):
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
			return
		default:
			response.AbortFail(c, http.StatusServiceUnavailable, response.ErrInternal)
			return
		}

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// GetSession retrieves the caller's session from the Gin context.
func GetSession(c *gin.Context) *auth.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := val.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}

// BearerToken returns the Authorization bearer token, or "".
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func extractToken(c *gin.Context) string {
	if token := BearerToken(c); token != "" {
		return token
	}
	return c.Query("token")
}
