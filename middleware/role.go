package middleware

import (
	"net/http"

	"expertmeet/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
			Message: "This endpoint is not available for your role",
			Code:    string(utils.KindForbidden),
		})
	}
}
