package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
	"github.com/noah-isme/rab-api/pkg/response"
)

// RequireRoles admits only callers whose token carries one of roles. It must
// run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		claims, ok := value.(*models.JWTClaims)
		if !exists || !ok || claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission for this action"))
			return
		}
		c.Next()
	}
}
