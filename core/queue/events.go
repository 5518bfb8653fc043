package queue

import (
	"context"
	"time"
)

// Event types
const (
	EventCarAdded     EventType = "car_added"
	EventCarRemoved   EventType = "car_removed"
	EventCarMoved     EventType = "car_moved"
	EventQueueCleared EventType = "queue_cleared"
	EventQueueReset   EventType = "queue_reset"
)

type (
	EventType string

	// Event describes a committed queue change.
	Event struct {
		Type        EventType `json:"type"`
		CampusID    string    `json:"campusId"`
		EntryID     string    `json:"entryId,omitempty"`
		CarNumber   int       `json:"carNumber,omitempty"`
		Lane        Lane      `json:"lane,omitempty"`
		FromLane    Lane      `json:"fromLane,omitempty"`
		Position    int       `json:"position,omitempty"`
		WaitSeconds int       `json:"waitSeconds,omitempty"`
		Count       int       `json:"count,omitempty"`
		At          time.Time `json:"at"`
	}

	// Notifier receives events after commit. Failures are the notifier's own concern.
	Notifier interface {
		Notify(ctx context.Context, evt Event)
	}
)
