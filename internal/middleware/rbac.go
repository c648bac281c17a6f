package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
	"github.com/nexlearn/campus-api/pkg/response"
)

// OwnerResolver maps a profile id to the account that owns it.
type OwnerResolver interface {
	OwnerUserID(ctx context.Context, profileID string) (string, error)
}

// RequireRoles restricts a route to the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := roleSet(roles)
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// SelfOrRoles admits the listed roles outright; any other authenticated user
// is admitted only when the profile addressed by the :id parameter belongs to
// their account. Profile ids and account ids are distinct, so ownership goes
// through the resolver instead of comparing the parameter to the claim.
func SelfOrRoles(owners OwnerResolver, roles ...models.UserRole) gin.HandlerFunc {
	allowed := roleSet(roles)
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		if owners != nil {
			if profileID := c.Param("id"); profileID != "" {
				ownerID, err := owners.OwnerUserID(c.Request.Context(), profileID)
				if err == nil && ownerID == claims.UserID {
					c.Next()
					return
				}
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func roleSet(roles []models.UserRole) map[models.UserRole]struct{} {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}

func claimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
