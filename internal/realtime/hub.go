// Package realtime relays group events to connected clients. Delivery is
// best effort: slow subscribers lose events and nothing is persisted.
package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/roommates-api/internal/constants"
)

// Event types
const (
	EventMemberJoined      = "member_joined"
	EventMemberLeft        = "member_left"
	EventMemberRemoved     = "member_removed"
	EventOwnerChanged      = "owner_changed"
	EventGroupDeleted      = "group_deleted"
	EventTaskCreated       = "task_created"
	EventTaskUpdated       = "task_updated"
	EventTaskDeleted       = "task_deleted"
	EventTaskAssigned      = "task_assigned"
	EventTaskStatusChanged = "task_status_changed"
	EventTasksScheduled    = "tasks_scheduled"
)

var ErrHubClosed = errors.New("realtime hub is closed")

// Event is the JSON message sent to subscribers of a group
type Event struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	GroupID uint64      `json:"group_id"`
	ActorID uint64      `json:"actor_id,omitempty"`
	At      time.Time   `json:"at"`
	Data    interface{} `json:"data,omitempty"`
}

type subscriber struct {
	ch chan Event
}

// Hub fans events out to subscribers per group
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uint64]map[*subscriber]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint64]map[*subscriber]struct{}),
	}
}

// Subscribe registers for a group's events. The returned cancel function
// must be called to release the subscription.
func (h *Hub) Subscribe(groupID uint64) (<-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, ErrHubClosed
	}

	sub := &subscriber{ch: make(chan Event, constants.SubscriberBufferSize)}
	if h.rooms[groupID] == nil {
		h.rooms[groupID] = make(map[*subscriber]struct{})
	}
	h.rooms[groupID][sub] = struct{}{}
	slog.Debug("Realtime subscribe", "group_id", groupID, "subscribers", len(h.rooms[groupID]))

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.unsubscribe(groupID, sub) })
	}
	return sub.ch, cancel, nil
}

func (h *Hub) unsubscribe(groupID uint64, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.rooms[groupID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.rooms, groupID)
	}
}

// Publish sends an event to every subscriber of its group without blocking.
// Subscribers whose buffer is full miss the event.
func (h *Hub) Publish(event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	for sub := range h.rooms[event.GroupID] {
		select {
		case sub.ch <- event:
		default:
			slog.Warn("Realtime subscriber lagging, dropping event", "group_id", event.GroupID, "type", event.Type)
		}
	}
	return nil
}

// Subscribers returns the number of subscribers of a group
func (h *Hub) Subscribers(groupID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

// Close disconnects every subscriber; later publishes fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for groupID, subs := range h.rooms {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.rooms, groupID)
	}
}
