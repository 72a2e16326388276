package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yatra-gate/backend/internal/auth"
	"github.com/yatra-gate/backend/pkg/response"
)

const (
	// ContextGate is the key for the session's gate type in gin context.
	ContextGate = "gate"
	// ContextDevice is the key for the scanner device label in gin context.
	ContextDevice = "device"
	// ContextSession is the key for the gate session id (JWT jti) in gin context.
	ContextSession = "session"
	// ContextAdminEmail is the key for the verified admin email in gin context.
	ContextAdminEmail = "admin_email"
)

// GateSession returns a middleware that validates a gate session JWT and sets
// gate and device in context.
func GateSession(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil || claims.Role != auth.RoleGate || claims.Gate == "" {
			response.Unauthorized(c, "invalid or expired gate session")
			c.Abort()
			return
		}
		c.Set(ContextGate, claims.Gate)
		c.Set(ContextDevice, claims.Device)
		c.Set(ContextSession, claims.ID)
		c.Next()
	}
}

// Station returns the gate and device set by GateSession.
func Station(c *gin.Context) (gate, device string) {
	return c.GetString(ContextGate), c.GetString(ContextDevice)
}

// SessionID returns the gate session id set by GateSession. Each login
// mints a new one.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSession)
}

// AdminEmail returns the admin email set by RequireAdmin.
func AdminEmail(c *gin.Context) string {
	return c.GetString(ContextAdminEmail)
}
