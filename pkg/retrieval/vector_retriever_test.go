package retrieval

import (
	"context"
	"testing"

	"compliance-audit-be/internal/model"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls int
}

func (p *stubProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.calls++
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type stubEmbeddingRepo struct {
	passages []*contract.ScoredPassage
	searches int
}

func (r *stubEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*model.ChunkEmbedding) error {
	return nil
}

func (r *stubEmbeddingRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}

func (r *stubEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, corpus string, documentId *uuid.UUID) ([]*contract.ScoredPassage, error) {
	r.searches++
	return r.passages, nil
}

func passage(chunkId, content string, similarity float64) *contract.ScoredPassage {
	return &contract.ScoredPassage{
		ChunkId:    chunkId,
		Corpus:     "regulation",
		Content:    content,
		Similarity: similarity,
	}
}

func TestSearchFiltersAndRanks(t *testing.T) {
	repo := &stubEmbeddingRepo{passages: []*contract.ScoredPassage{
		passage("c1", "Certifying staff shall hold a valid authorization.", 0.91),
		passage("c2", "123.4 567.8 -910.1", 0.85),
		passage("c3", "short", 0.80),
		passage("c4", "Maintenance records are retained for three years.", 0.42),
		passage("c5", "The quality system covers all subcontracted work.", 0.05),
	}}
	retriever := NewVectorRetriever(repo, &stubProvider{}, 0.1, logger.NopLogger{})

	matches, err := retriever.Search(context.Background(), Query{
		Corpus: "regulation",
		Text:   "certifying staff",
		TopK:   10,
	})
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "c1", matches[0].ChunkId)
	assert.Equal(t, 0, matches[0].Rank)
	assert.Equal(t, "c4", matches[1].ChunkId)
	assert.Equal(t, 1, matches[1].Rank)
}

func TestSearchEmptyQueryText(t *testing.T) {
	repo := &stubEmbeddingRepo{}
	provider := &stubProvider{}
	retriever := NewVectorRetriever(repo, provider, 0, logger.NopLogger{})

	matches, err := retriever.Search(context.Background(), Query{Corpus: "regulation", Text: "   "})
	require.NoError(t, err)
	assert.Nil(t, matches)
	assert.Zero(t, provider.calls)
	assert.Zero(t, repo.searches)
}

func TestSearchEmptyCorpusIsNotAnError(t *testing.T) {
	repo := &stubEmbeddingRepo{}
	retriever := NewVectorRetriever(repo, &stubProvider{}, 0, logger.NopLogger{})

	matches, err := retriever.Search(context.Background(), Query{
		Corpus: "precedent",
		Text:   "enforcement action",
		TopK:   5,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchCachesByKey(t *testing.T) {
	repo := &stubEmbeddingRepo{passages: []*contract.ScoredPassage{
		passage("c1", "Certifying staff shall hold a valid authorization.", 0.91),
	}}
	retriever := NewVectorRetriever(repo, &stubProvider{}, 0, logger.NopLogger{})

	query := Query{Corpus: "regulation", Text: "certifying staff", TopK: 5, CacheKey: "chunk-1_ref_staff"}
	first, err := retriever.Search(context.Background(), query)
	require.NoError(t, err)
	second, err := retriever.Search(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.searches)
}
