package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Verbs carried in topic names.
const (
	VerbCreated       = "created"
	VerbUpdated       = "updated"
	VerbDeleted       = "deleted"
	VerbStatusChanged = "statusChanged"
)

// Event is a change record for a single entity. The snapshot is the full
// public representation of the entity at publish time, never a diff.
type Event struct {
	Topic      string
	EntityName string
	Verb       string
	EntityID   string
	Snapshot   Document
	OccurredAt time.Time
}

// IsDelete reports whether the event tombstones its entity.
func (e Event) IsDelete() bool { return e.Verb == VerbDeleted }

// DecodeEvent parses a message payload published on topic. The payload is the
// entity's JSON snapshot; the entity id is read from its "id" field.
func DecodeEvent(topic string, payload []byte, occurredAt time.Time) (Event, error) {
	entity, verb, err := ParseTopic(topic)
	if err != nil {
		return Event{}, err
	}
	var snapshot Document
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Event{}, fmt.Errorf("decode event on %s: %w", topic, err)
	}
	id := snapshot.ID()
	if id == "" {
		return Event{}, fmt.Errorf("decode event on %s: payload has no id", topic)
	}
	return Event{
		Topic:      topic,
		EntityName: entity,
		Verb:       verb,
		EntityID:   id,
		Snapshot:   snapshot,
		OccurredAt: occurredAt,
	}, nil
}
