package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ChunkEmbedding is the retrieval index row for one passage. Corpus is the
// logical partition name ("document", "regulation", "amc", "gm", "precedent").
type ChunkEmbedding struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChunkId     string          `gorm:"size:128;not null;index"`
	DocumentId  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Corpus      string          `gorm:"size:30;not null;index"`
	Ordinal     int             `gorm:"default:0"`
	SectionPath string          `gorm:"size:512"`
	Heading     string          `gorm:"size:255"`
	Content     string          `gorm:"type:text"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}
