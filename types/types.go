package types

import "time"

// EventType identifies what kind of cache change an InvalidationEvent
// describes.
type EventType string

const (
	// Created is published after a value is written under a key that did
	// not previously exist.
	Created EventType = "created"

	// Updated is published after an existing key is overwritten.
	Updated EventType = "updated"

	// Deleted is published after a single entry is removed.
	Deleted EventType = "deleted"

	// ClearScope is published after a whole namespace is invalidated
	// (version bump); Subkey is empty.
	ClearScope EventType = "clear-scope"

	// ClearAll is published after every namespace is invalidated;
	// Namespace and Subkey are both empty.
	ClearAll EventType = "clear-all"
)

// InvalidationEvent is the wire record broadcast to all processes when
// cached data changes. Every process in a deployment must agree on this
// schema; receivers log and ignore unknown Type values.
type InvalidationEvent struct {
	Type            EventType `json:"type"`
	Namespace       string    `json:"namespace,omitempty"`
	Subkey          string    `json:"subkey,omitempty"`
	OriginProcessID string    `json:"originProcessId"`
	TimestampMillis int64     `json:"timestampMillis"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(kind EventType, namespace, subkey, origin string) InvalidationEvent {
	return InvalidationEvent{
		Type:            kind,
		Namespace:       namespace,
		Subkey:          subkey,
		OriginProcessID: origin,
		TimestampMillis: time.Now().UnixMilli(),
	}
}
