package middleware

import (
	"fmt"
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/constants"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
)

// RequireAuth checks if the user is authenticated via session. The user ID
// is stored in the context as a uint64 regardless of how the session store
// encoded it.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(constants.ContextKeyUserID)
		if raw == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, ok := toUserID(raw)
		if !ok {
			slog.Warn("Discarding session with unreadable user id", "type", fmt.Sprintf("%T", raw))
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Session expired, please log in again")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

func toUserID(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int64:
		return uint64(v), v > 0
	case int:
		return uint64(v), v > 0
	case float64:
		// JSON-backed stores decode numbers as float64
		if v <= 0 || v != float64(uint64(v)) {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
