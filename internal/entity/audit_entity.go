package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditStatusQueued     = "queued"
	AuditStatusRunning    = "running"
	AuditStatusCompleted  = "completed"
	AuditStatusFailed     = "failed"
	AuditStatusCancelling = "cancelling"
	AuditStatusCancelled  = "cancelled"
)

type Audit struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	Status         string
	IsDraft        bool
	ChunkTotal     int
	ChunkCompleted int
	ChunkFailed    int
	LastChunkId    *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	FailedAt       *time.Time
	CancelledAt    *time.Time
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Terminal reports whether the audit can no longer be advanced by the runner.
func (a *Audit) Terminal() bool {
	switch a.Status {
	case AuditStatusCompleted, AuditStatusFailed, AuditStatusCancelled:
		return true
	}
	return false
}
