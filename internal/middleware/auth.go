package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
)

const actorKey = "actor"

// TokenVerifier turns a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(token string) (models.Actor, error)
}

func abort(c *gin.Context, status int, kind apperr.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": kind, "message": message})
}

// AuthGuard requires a valid bearer token and, when roles are given, one of
// those roles.
func AuthGuard(verifier TokenVerifier, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			abort(c, http.StatusUnauthorized, apperr.Unauthorized, "missing token")
			return
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, apperr.Unauthorized, "invalid token")
			return
		}

		actor, err := verifier.Verify(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.Unauthorized, apperr.Message(err))
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if actor.Role == r {
					match = true
					break
				}
			}
			if !match {
				abort(c, http.StatusForbidden, apperr.Forbidden, "forbidden")
				return
			}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func UserAuth(verifier TokenVerifier) gin.HandlerFunc {
	return AuthGuard(verifier)
}

func AdminAuth(verifier TokenVerifier) gin.HandlerFunc {
	return AuthGuard(verifier, models.RoleAdmin)
}

// ActorFromContext returns the identity stored by AuthGuard.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

