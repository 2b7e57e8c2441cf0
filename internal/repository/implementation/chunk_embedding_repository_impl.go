package implementation

import (
	"context"

	"compliance-audit-be/internal/model"
	"compliance-audit-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewChunkEmbeddingRepository(db *gorm.DB) contract.ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepositoryImpl{db: db}
}

func (r *ChunkEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*model.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(embeddings).Error
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, corpus string, documentId *uuid.UUID) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) recovers the similarity.
	// The (ordinal, chunk_id) suffix keeps equal-similarity orderings stable
	// across repeated runs, which the golden-output tests rely on.
	type row struct {
		model.ChunkEmbedding
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select("chunk_embeddings.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("corpus = ?", corpus)
	if documentId != nil {
		query = query.Where("document_id = ?", *documentId)
	}
	err := query.
		Order(gorm.Expr("embedding <=> ?, ordinal ASC, chunk_id ASC", queryVector)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	passages := make([]*contract.ScoredPassage, len(rows))
	for i, res := range rows {
		passages[i] = &contract.ScoredPassage{
			ChunkId:     res.ChunkId,
			DocumentId:  res.DocumentId,
			Corpus:      res.Corpus,
			Ordinal:     res.Ordinal,
			SectionPath: res.SectionPath,
			Heading:     res.Heading,
			Content:     res.Content,
			Similarity:  res.Similarity,
		}
	}
	return passages, nil
}
