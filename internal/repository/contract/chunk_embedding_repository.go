package contract

import (
	"context"

	"compliance-audit-be/internal/model"

	"github.com/google/uuid"
)

// ScoredPassage is one similarity-search hit from a corpus.
type ScoredPassage struct {
	ChunkId     string
	DocumentId  uuid.UUID
	Corpus      string
	Ordinal     int
	SectionPath string
	Heading     string
	Content     string
	Similarity  float64 // 0.0 to 1.0 (1.0 = identical)
}

type ChunkEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*model.ChunkEmbedding) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// SearchSimilarWithScore runs a cosine-similarity search within one corpus,
	// optionally scoped to a single document. Results are ordered by descending
	// similarity with (ordinal, chunk_id) as the stable tie-break, so repeated
	// searches against an unchanged corpus return identical orderings.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, corpus string, documentId *uuid.UUID) ([]*ScoredPassage, error)
}
