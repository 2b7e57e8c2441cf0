package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditChunkResult struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditId           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_result_audit_chunk,priority:1"`
	ChunkId           string    `gorm:"size:128;not null;uniqueIndex:uq_result_audit_chunk,priority:2"`
	Ordinal           int       `gorm:"not null"`
	Status            string    `gorm:"size:30;not null;default:completed"`
	Analysis          datatypes.JSON `gorm:"type:jsonb"`
	ContextTokenCount int
	FailureReason     *string   `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (AuditChunkResult) TableName() string {
	return "audit_chunk_results"
}
