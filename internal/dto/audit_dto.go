package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartAuditRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
	IsDraft    bool      `json:"is_draft"`
}

type StartAuditResponse struct {
	AuditId uuid.UUID `json:"audit_id"`
}

// RunAuditMessage is the job payload carried on the internal bus.
type RunAuditMessage struct {
	AuditId uuid.UUID `json:"audit_id"`
}

// JobState is the externally visible progress snapshot of one audit.
type JobState struct {
	AuditId        uuid.UUID  `json:"audit_id"`
	DocumentId     uuid.UUID  `json:"document_id"`
	Status         string     `json:"status"`
	IsDraft        bool       `json:"is_draft"`
	ChunkTotal     int        `json:"chunk_total"`
	ChunkCompleted int        `json:"chunk_completed"`
	ChunkFailed    int        `json:"chunk_failed"`
	LastChunkId    *string    `json:"last_chunk_id"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	FailureReason  *string    `json:"failure_reason"`
}

type CitationResponse struct {
	CitationType string `json:"citation_type"`
	Reference    string `json:"reference"`
}

type FlagResponse struct {
	Id                 uuid.UUID          `json:"id"`
	ChunkId            string             `json:"chunk_id"`
	FlagType           string             `json:"flag_type"`
	SeverityScore      int                `json:"severity_score"`
	Findings           string             `json:"findings"`
	Gaps               []string           `json:"gaps"`
	Recommendations    []string           `json:"recommendations"`
	Citations          []CitationResponse `json:"citations"`
	RefinementAttempts int                `json:"refinement_attempts"`
}

type ListFlagsRequest struct {
	AuditId            uuid.UUID
	Classification     string `json:"classification"`
	ReferenceSubstring string `json:"reference"`
}
