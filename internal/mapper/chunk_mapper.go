package mapper

import (
	"encoding/json"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/model"

	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		// Malformed metadata is treated as absent; chunks are read-only input.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}
	return &entity.Chunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		ChunkId:     c.ChunkId,
		Ordinal:     c.Ordinal,
		SectionPath: c.SectionPath,
		Heading:     c.Heading,
		Content:     c.Content,
		TokenCount:  c.TokenCount,
		PrevChunkId: c.PrevChunkId,
		NextChunkId: c.NextChunkId,
		Metadata:    metadata,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	var metadata datatypes.JSON
	if c.Metadata != nil {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			metadata = raw
		}
	}
	return &model.Chunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		ChunkId:     c.ChunkId,
		Ordinal:     c.Ordinal,
		SectionPath: c.SectionPath,
		Heading:     c.Heading,
		Content:     c.Content,
		TokenCount:  c.TokenCount,
		PrevChunkId: c.PrevChunkId,
		NextChunkId: c.NextChunkId,
		Metadata:    metadata,
		CreatedAt:   c.CreatedAt,
	}
}
