package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Chunk struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  uuid.UUID `gorm:"type:uuid;not null;index:idx_chunks_doc_ordinal,priority:1"`
	ChunkId     string    `gorm:"size:128;not null;uniqueIndex"`
	Ordinal     int       `gorm:"not null;index:idx_chunks_doc_ordinal,priority:2"`
	SectionPath string    `gorm:"size:512"`
	Heading     string    `gorm:"size:255"`
	Content     string    `gorm:"type:text;not null"`
	TokenCount  int
	PrevChunkId *string        `gorm:"size:128"`
	NextChunkId *string        `gorm:"size:128"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
