package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/constants"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/services"
)

// respondServiceError handles errors shared by every service. Storage
// details are logged, never sent to the client.
func respondServiceError(c *gin.Context, err error) {
	requestID, _ := c.Get(constants.ContextKeyRequestID)

	switch {
	case errors.Is(err, services.ErrStorageFailure):
		slog.Error("Storage failure", "request_id", requestID, "path", c.FullPath(), "error", err)
		apierrors.StorageFailure(c, "")
	default:
		slog.Error("Unhandled service error", "request_id", requestID, "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "")
	}
	_ = c.Error(err)
}
