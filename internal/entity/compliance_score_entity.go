package entity

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceScore is the per-audit rollup recorded when a run completes.
type ComplianceScore struct {
	Id           uuid.UUID
	AuditId      uuid.UUID
	OverallScore float64
	RedCount     int
	YellowCount  int
	GreenCount   int
	TotalFlags   int
	CreatedAt    time.Time
}
