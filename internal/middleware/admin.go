package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/auth"
	"github.com/yatra-gate/backend/pkg/response"
)

// HeaderAdminPin carries the admin override PIN.
const HeaderAdminPin = "X-Admin-Pin"

// AdminPin returns a middleware that requires the admin override PIN.
func AdminPin(pin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.CheckSecret(c.GetHeader(HeaderAdminPin), pin) {
			response.Unauthorized(c, "invalid admin PIN")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware that resolves the bearer token to an
// admin email (master admin or check_is_admin).
func RequireAdmin(checker *auth.AdminChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := checker.RequireAdminEmail(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNotAdmin):
				response.Forbidden(c, "Unauthorized: not an admin")
			case errors.Is(err, auth.ErrAdminCheck):
				logger.Error("admin check failed", zap.Error(err))
				response.Unauthorized(c, "Unauthorized: admin check failed")
			case errors.Is(err, auth.ErrMissingBearer):
				response.Unauthorized(c, "Missing Authorization bearer token")
			default:
				response.Unauthorized(c, "Unauthorized: invalid user token")
			}
			c.Abort()
			return
		}
		c.Set(ContextAdminEmail, email)
		c.Next()
	}
}
