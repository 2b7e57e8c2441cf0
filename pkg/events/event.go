package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "AUDIT_QUEUED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation; constructors below build the
// audit lifecycle events from it.
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

func AuditQueued(auditId, documentId uuid.UUID, draft bool) Event {
	return BaseEvent{
		Type: "AUDIT_QUEUED",
		Data: map[string]interface{}{
			"audit_id":    auditId,
			"document_id": documentId,
			"draft":       draft,
		},
		OccurredAt: time.Now(),
	}
}

func AuditCompleted(auditId uuid.UUID, chunkCompleted, chunkFailed int) Event {
	return BaseEvent{
		Type: "AUDIT_COMPLETED",
		Data: map[string]interface{}{
			"audit_id":        auditId,
			"chunk_completed": chunkCompleted,
			"chunk_failed":    chunkFailed,
		},
		OccurredAt: time.Now(),
	}
}

func AuditFailed(auditId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: "AUDIT_FAILED",
		Data: map[string]interface{}{
			"audit_id": auditId,
			"reason":   reason,
		},
		OccurredAt: time.Now(),
	}
}

func AuditCancelled(auditId uuid.UUID, remaining int64) Event {
	return BaseEvent{
		Type: "AUDIT_CANCELLED",
		Data: map[string]interface{}{
			"audit_id":         auditId,
			"chunks_remaining": remaining,
		},
		OccurredAt: time.Now(),
	}
}
