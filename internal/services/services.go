package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/roommates-api/internal/metrics"
	"github.com/yukikurage/roommates-api/internal/realtime"
)

// ErrStorageFailure wraps every error coming from the backing store.
var ErrStorageFailure = errors.New("storage failure")

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// Notifier delivers group events to connected clients
type Notifier interface {
	Publish(event realtime.Event) error
}

// notify publishes best effort. Failures are logged and never returned.
func notify(n Notifier, event realtime.Event) {
	if n == nil {
		return
	}
	if err := n.Publish(event); err != nil {
		metrics.NotificationFailures.Inc()
		slog.Warn("Failed to publish event", "type", event.Type, "group_id", event.GroupID, "error", err)
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
