package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/embedding"

	"github.com/patrickmn/go-cache"
)

// corruptedContent matches passages that are only digits, whitespace,
// dots, and dashes. OCR artifacts and coordinate tables look like this.
var corruptedContent = regexp.MustCompile(`^[\d\s.\-]+$`)

type VectorRetriever struct {
	embeddings contract.ChunkEmbeddingRepository
	provider   embedding.EmbeddingProvider
	cache      *cache.Cache
	// similarityFloor drops matches below this cosine similarity.
	similarityFloor float64
	logger          logger.ILogger
}

func NewVectorRetriever(
	embeddings contract.ChunkEmbeddingRepository,
	provider embedding.EmbeddingProvider,
	similarityFloor float64,
	log logger.ILogger,
) *VectorRetriever {
	// Query results stay valid until the corpus is re-embedded; a short
	// TTL keeps repeated expansion passes cheap without staleness risk.
	c := cache.New(10*time.Minute, 15*time.Minute)
	return &VectorRetriever{
		embeddings:      embeddings,
		provider:        provider,
		cache:           c,
		similarityFloor: similarityFloor,
		logger:          log,
	}
}

func (r *VectorRetriever) Search(ctx context.Context, query Query) ([]Match, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, nil
	}

	if query.CacheKey != "" {
		if cached, found := r.cache.Get(r.cacheKey(query)); found {
			return cached.([]Match), nil
		}
	}

	embeddingRes, err := r.provider.Generate(query.Text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	passages, err := r.embeddings.SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		query.TopK,
		query.Corpus,
		query.DocumentId,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search in %s: %w", query.Corpus, err)
	}

	matches := make([]Match, 0, len(passages))
	for _, p := range passages {
		if p.Similarity < r.similarityFloor {
			continue
		}
		if isCorrupted(p.Content) {
			continue
		}
		matches = append(matches, Match{
			ChunkId:     p.ChunkId,
			DocumentId:  p.DocumentId,
			Corpus:      p.Corpus,
			Ordinal:     p.Ordinal,
			SectionPath: p.SectionPath,
			Heading:     p.Heading,
			Content:     p.Content,
			Similarity:  p.Similarity,
			Rank:        len(matches),
		})
	}

	r.logger.Debug("retrieval", "similarity search completed", map[string]interface{}{
		"corpus":  query.Corpus,
		"top_k":   query.TopK,
		"matches": len(matches),
	})

	if query.CacheKey != "" {
		r.cache.Set(r.cacheKey(query), matches, cache.DefaultExpiration)
	}
	return matches, nil
}

func (r *VectorRetriever) cacheKey(query Query) string {
	scope := ""
	if query.DocumentId != nil {
		scope = query.DocumentId.String()
	}
	return fmt.Sprintf("%s|%s|%d|%s", query.Corpus, query.CacheKey, query.TopK, scope)
}

func isCorrupted(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len([]rune(trimmed)) < 10 {
		return true
	}
	return corruptedContent.MatchString(trimmed)
}
