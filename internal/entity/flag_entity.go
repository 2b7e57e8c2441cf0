package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	FlagRed    = "RED"
	FlagYellow = "YELLOW"
	FlagGreen  = "GREEN"
)

// Flag is the durable finding for one chunk within one audit.
// There is at most one flag per (audit, chunk); re-runs replace it.
type Flag struct {
	Id                 uuid.UUID
	AuditId            uuid.UUID
	ChunkId            string
	FlagType           string
	SeverityScore      int
	Findings           string
	Gaps               []string
	Recommendations    []string
	Citations          []Citation
	RefinementAttempts int
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

type Citation struct {
	Id           uuid.UUID
	FlagId       uuid.UUID
	CitationType string
	Reference    string
}
