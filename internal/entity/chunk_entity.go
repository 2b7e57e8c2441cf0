package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is an immutable unit of source document text. Chunks are created by
// the preprocessing pipeline; the audit core only reads them.
type Chunk struct {
	Id           uuid.UUID
	DocumentId   uuid.UUID
	ChunkId      string
	Ordinal      int
	SectionPath  string
	Heading      string
	Content      string
	TokenCount   int
	PrevChunkId  *string
	NextChunkId  *string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
}
