package middleware

import (
	"errors"
	"net/http"
	"strings"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys set by Authenticate.
const (
	ContextSession   = "session"
	ContextPrincipal = "principal"
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
)

// Authenticate resolves the bearer access token into a session. Requests
// without a valid token are aborted with 401.
func Authenticate(auth services.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authentication credentials were not provided.",
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(tokenStr))
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": services.MsgInvalidToken,
				})
				return
			}
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("authentication failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextPrincipal, session.Principal)
		c.Set(ContextUserID, session.Principal.ID.String())
		c.Set(ContextUserRole, string(session.Principal.Role))
		c.Next()
	}
}

// RequireRole aborts with 403 unless allow accepts the authenticated
// principal. It must run after Authenticate.
func RequireRole(allow func(*models.Principal) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allow(PrincipalFrom(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "insufficient_role",
				"message": "You do not have permission to perform this action.",
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate, or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

func SessionFrom(c *gin.Context) *services.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	s, _ := v.(*services.Session)
	return s
}
