// Package sse implements Server-Sent Events for pushing reading-state
// changes to connected readers.
package sse

import "time"

// EventType represents the type of SSE event.
type EventType string

const (
	// EventHistoryUpdated fires when a history record is created or its
	// progress changes, including evictions caused by the history cap.
	EventHistoryUpdated EventType = "history.updated"
	// EventHistoryRemoved fires when a book is removed from history.
	EventHistoryRemoved EventType = "history.removed"

	// EventBookmarkAdded fires when a book is bookmarked.
	EventBookmarkAdded EventType = "bookmark.added"
	// EventBookmarkRemoved fires when a bookmark is removed.
	EventBookmarkRemoved EventType = "bookmark.removed"
	// EventBookmarkStatusChanged fires when a bookmark's status moves.
	EventBookmarkStatusChanged EventType = "bookmark.status_changed"

	// EventGoalCreated fires when a reading goal is created.
	EventGoalCreated EventType = "goal.created"
	// EventGoalUpdated fires when a goal changes, including automatic
	// completed-count updates driven by bookmark status changes.
	EventGoalUpdated EventType = "goal.updated"
	// EventGoalDeleted fires when a goal is deleted.
	EventGoalDeleted EventType = "goal.deleted"

	// EventCatalogReloaded fires when the book catalog is reloaded.
	EventCatalogReloaded EventType = "catalog.reloaded"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// OwnerID scopes delivery: empty means broadcast to every client.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Type      EventType `json:"type"`
	OwnerID   string    `json:"owner_id,omitempty"`
}

// NewEvent creates an event scoped to one owner.
func NewEvent(eventType EventType, ownerID string, data any) Event {
	return Event{
		Type:      eventType,
		OwnerID:   ownerID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}
