package model

import (
	"time"

	"github.com/google/uuid"
)

type Audit struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Status         string    `gorm:"size:30;not null;default:queued;index"`
	IsDraft        bool      `gorm:"not null;default:false"`
	ChunkTotal     int       `gorm:"not null;default:0"`
	ChunkCompleted int       `gorm:"not null;default:0"`
	ChunkFailed    int       `gorm:"not null;default:0"`
	LastChunkId    *string   `gorm:"size:128"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	FailedAt       *time.Time
	CancelledAt    *time.Time
	FailureReason  *string   `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Audit) TableName() string {
	return "audits"
}
