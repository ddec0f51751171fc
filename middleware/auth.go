package middleware

import (
	"net/http"
	"strings"

	"expertmeet/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID      = "userID"
	ContextRole        = "role"
	ContextDisplayName = "displayName"
)

// JWTAuthMiddleware validates the bearer token and stores the caller's id,
// role and display name in the context. EventSource clients cannot set
// headers, so an access_token query parameter is accepted as well.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if q := c.Query("access_token"); q != "" {
			tokenString = q
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Missing or invalid Authorization header"})
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextDisplayName, claims.DisplayName)
		c.Next()
	}
}

// UserID returns the authenticated caller's id, or "" outside JWTAuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func Role(c *gin.Context) string {
	return c.GetString(ContextRole)
}
