package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details), zap.Int("status", status))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusPaymentRequired
	case KindCallProvisioning:
		return http.StatusServiceUnavailable
	case KindInvalidArgument, KindSignaling, KindMediaAcquisition, KindIceFailure:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its AppError kind, hiding internal details for
// unclassified failures.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		GetLogger().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Details: "An unexpected error occurred. Please try again later.",
		})
		return
	}
	status := StatusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		GetLogger().Error(appErr.Message, zap.String("kind", string(appErr.Kind)), zap.Error(appErr.Err))
	} else {
		GetLogger().Warn(appErr.Message, zap.String("kind", string(appErr.Kind)))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Message: appErr.Message, Code: string(appErr.Kind)})
}
