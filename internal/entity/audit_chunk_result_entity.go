package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChunkResultCompleted = "completed"
	ChunkResultFailed    = "failed"
)

// AuditChunkResult records the outcome of processing one chunk, including a
// compact description of the context bundle used for the analysis call. The
// bundle itself is not persisted verbatim.
type AuditChunkResult struct {
	Id                uuid.UUID
	AuditId           uuid.UUID
	ChunkId           string
	Ordinal           int
	Status            string
	Analysis          map[string]interface{}
	ContextTokenCount int
	FailureReason     *string
	CreatedAt         time.Time
}
