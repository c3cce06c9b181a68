package middleware

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/constants"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/services"
)

// TaskLoader loads a task visible to a user
type TaskLoader interface {
	GetTask(userID, taskID uint64) (*models.Task, error)
}

// RequireTaskAccess checks if the user has access to a task.
// The task must belong to the user's group.
func RequireTaskAccess(tasks TaskLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := tasks.GetTask(userID, taskID)
		if err != nil {
			switch {
			// Tasks of other groups look missing so their existence does not leak
			case errors.Is(err, services.ErrTaskNotFound), errors.Is(err, services.ErrGroupNotFound):
				apierrors.NotFound(c, "Task not found")
			case errors.Is(err, services.ErrStorageFailure):
				slog.Error("Failed to load task", "task_id", taskID, "error", err)
				apierrors.StorageFailure(c, "")
			default:
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
