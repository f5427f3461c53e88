package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextUserID is the gin context key the auth middleware stores the caller under.
const ContextUserID = "user_id"

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	switch v := val.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		userID, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, apperror.ErrUnauthorized
		}
		return userID, nil
	default:
		return uuid.Nil, apperror.ErrUnauthorized
	}
}

// Msg writes a {"msg": ...} body.
func Msg(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"msg": msg})
}

// Errors writes an {"errors": [...]} body.
func Errors(c *gin.Context, code int, errs []apperror.FieldError) {
	c.JSON(code, gin.H{"errors": errs})
}

// Error standardized error response. Internal errors are logged and
// answered with a generic message.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "internal error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
		Msg(c, code, "Server error")
		return
	}

	var rateErr *ratelimiter.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateErr.RetryAfter.Seconds()))
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Errors) > 0 {
			Errors(c, code, appErr.Errors)
			return
		}
		Msg(c, code, appErr.Error())
		return
	}

	Msg(c, code, err.Error())
}
