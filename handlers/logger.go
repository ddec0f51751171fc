package handlers

import (
	"net/http"

	"expertmeet/middleware"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request logger from the Gin context or falls back to
// the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(middleware.ContextLogger); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// callerID returns the authenticated user id. Routes without JWTAuthMiddleware
// get "" and the handler answers 401.
func callerID(c *gin.Context) (string, bool) {
	id := middleware.UserID(c)
	if id == "" {
		utils.JSONError(c, http.StatusUnauthorized, "User not authenticated", "")
		return "", false
	}
	return id, true
}

// bindJSON binds the request body and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		getLogger(c).Debug("invalid request payload", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}
