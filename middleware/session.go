package middleware

import (
	"github.com/gin-gonic/gin"

	"studyvault-backend/internal/session"
)

const SessionIDHeader = "X-Session-ID"

// SessionMiddleware resolves the caller's study session. A missing header
// gets a server-issued id, echoed back so the client can persist it.
func SessionMiddleware(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			sessionID = manager.NewSession()
		}

		c.Set("session_id", sessionID)
		c.Header(SessionIDHeader, sessionID)

		c.Next()
	}
}

// GetSessionID retrieves the session ID from context
func GetSessionID(c *gin.Context) string {
	if id, exists := c.Get("session_id"); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}
