package events

import "time"

// Event types emitted by the persistence core.
const (
	TypeNoteCreated        = "NOTE_CREATED"
	TypeNoteUpdated        = "NOTE_UPDATED"
	TypeNoteDeleted        = "NOTE_DELETED"
	TypeMigrationCompleted = "MIGRATION_COMPLETED"
	TypeMigrationFailed    = "MIGRATION_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NoteEvent builds a record-scoped event.
func NoteEvent(eventType string, noteId int64, title string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"note_id": noteId,
			"title":   title,
		},
		OccurredAt: time.Now(),
	}
}
