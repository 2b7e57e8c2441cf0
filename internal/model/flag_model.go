package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Flag struct {
	Id                 uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditId            uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:uq_flag_audit_chunk,priority:1;index:idx_flags_audit_type,priority:1"`
	ChunkId            string                      `gorm:"size:128;not null;uniqueIndex:uq_flag_audit_chunk,priority:2"`
	FlagType           string                      `gorm:"size:10;not null;index:idx_flags_audit_type,priority:2"`
	SeverityScore      int                         `gorm:"not null"`
	Findings           string                      `gorm:"type:text;not null"`
	Gaps               datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Recommendations    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	RefinementAttempts int                         `gorm:"not null;default:0"`
	Citations          []Citation                  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"autoUpdateTime"`
}

func (Flag) TableName() string {
	return "flags"
}

type Citation struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FlagId       uuid.UUID `gorm:"type:uuid;not null;index"`
	CitationType string    `gorm:"size:20;not null"`
	Reference    string    `gorm:"size:255;not null"`
}

func (Citation) TableName() string {
	return "citations"
}
