package middleware

import (
	"net/http"
	"strings"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
	"therapia/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// AuthMiddleware validates the bearer token and resolves the caller into an
// Actor. Therapist callers get their profile looked up once here so the
// services below never re-resolve it.
func AuthMiddleware(therapists therapistRepo.TherapistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		sub, role, err := utils.ExtractIdentityFromToken(tokenStr)
		if err != nil {
			zap.L().Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		actor := models.Actor{ID: sub, Role: models.Role(role)}
		switch actor.Role {
		case models.RolePatient, models.RoleAdmin:
		case models.RoleTherapist:
			profile, err := therapists.GetByUserID(c.Request.Context(), sub)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no active therapist profile"})
				return
			}
			actor.TherapistID = profile.ID
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown role"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole restricts a route group to the given roles. Must run after
// AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

// ActorFromContext returns the Actor resolved by AuthMiddleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
