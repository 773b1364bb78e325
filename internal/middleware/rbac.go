package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-analytics/internal/models"
	appErrors "github.com/noah-isme/sma-score-analytics/pkg/errors"
	"github.com/noah-isme/sma-score-analytics/pkg/response"
)

// RequirePermission allows requests whose token grants the permission code. Admins always pass.
func RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.HasPermission(code) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+code))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRoles restricts a route to the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
