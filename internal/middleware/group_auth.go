package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/constants"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/services"
)

// GroupResolver finds the group a user belongs to
type GroupResolver interface {
	GroupIDForUser(userID uint64) (uint64, error)
}

// RequireGroupMember checks that the user belongs to a group and stores
// the group ID in the context
func RequireGroupMember(groups GroupResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		groupID, err := groups.GroupIDForUser(userID)
		if err != nil {
			if errors.Is(err, services.ErrGroupNotFound) {
				apierrors.NotFound(c, "You are not a member of any group")
			} else {
				slog.Error("Failed to resolve group", "user_id", userID, "error", err)
				apierrors.StorageFailure(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyGroupID, groupID)
		c.Next()
	}
}

// GetGroupID retrieves the group ID stored by RequireGroupMember
func GetGroupID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyGroupID)
	if !exists {
		return 0, false
	}
	groupID, ok := value.(uint64)
	return groupID, ok
}
