package assembler

import (
	"context"
	"sync"
	"testing"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/pkg/evidence"
	"compliance-audit-be/pkg/retrieval"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkRepo struct {
	window []*entity.Chunk
}

func (r *fakeChunkRepo) FindByChunkId(ctx context.Context, chunkId string) (*entity.Chunk, error) {
	for _, c := range r.window {
		if c.ChunkId == chunkId {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeChunkRepo) FindWindow(ctx context.Context, documentId uuid.UUID, ordinal, window int) ([]*entity.Chunk, error) {
	var out []*entity.Chunk
	for _, c := range r.window {
		if c.Ordinal >= ordinal-window && c.Ordinal <= ordinal+window {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChunkRepo) FindPending(ctx context.Context, documentId, auditId uuid.UUID, limit int) ([]*entity.Chunk, error) {
	return nil, nil
}

func (r *fakeChunkRepo) CountPending(ctx context.Context, documentId, auditId uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *fakeChunkRepo) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	return int64(len(r.window)), nil
}

// fakeRetriever serves canned matches keyed by corpus and records every
// query it sees. Searches run concurrently, so recording is locked.
type fakeRetriever struct {
	matches map[string][]retrieval.Match

	mu      sync.Mutex
	queries []retrieval.Query
}

func (r *fakeRetriever) Search(ctx context.Context, query retrieval.Query) ([]retrieval.Match, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return r.matches[query.Corpus], nil
}

func match(chunkId, corpus, content string, similarity float64, rank int) retrieval.Match {
	return retrieval.Match{
		ChunkId:    chunkId,
		Corpus:     corpus,
		Content:    content,
		Similarity: similarity,
		Rank:       rank,
	}
}

func testConfig() config.ContextConfig {
	return config.ContextConfig{
		NeighborWindow:       1,
		SiblingTopK:          5,
		SiblingTokenLimit:    1200,
		RegulationTopK:       10,
		RegulationTokenLimit: 2000,
		GuidanceTopK:         5,
		GuidanceTokenLimit:   1500,
		PrecedentTopK:        2,
		PrecedentTokenLimit:  1000,
		TotalTokenLimit:      6000,
	}
}

func focusChunk(docId uuid.UUID) *entity.Chunk {
	return &entity.Chunk{
		DocumentId:  docId,
		ChunkId:     "doc-0002",
		Ordinal:     2,
		SectionPath: "4.2",
		Content:     "Certifying staff shall be qualified per Section 4.2.",
	}
}

func TestBuildJoinsCategoriesInOrder(t *testing.T) {
	docId := uuid.New()
	repo := &fakeChunkRepo{window: []*entity.Chunk{
		{DocumentId: docId, ChunkId: "doc-0001", Ordinal: 1, Content: "Previous requirements for staff."},
		focusChunk(docId),
		{DocumentId: docId, ChunkId: "doc-0003", Ordinal: 3, Content: "Subsequent requirements for records."},
	}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{
		retrieval.CorpusDocument: {
			match("doc-0010", retrieval.CorpusDocument, "Qualification criteria for certifying staff roles.", 0.8, 0),
		},
		retrieval.CorpusRegulation: {
			match("reg-0001", retrieval.CorpusRegulation, "Part-145.A.30 certifying staff requirements text.", 0.9, 0),
		},
		retrieval.CorpusAMC: {
			match("amc-0001", retrieval.CorpusAMC, "AMC material on certifying staff qualification.", 0.7, 0),
		},
		retrieval.CorpusGM: {
			match("gm-0001", retrieval.CorpusGM, "GM material explaining the qualification intent.", 0.6, 0),
		},
	}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	bundle, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{})
	require.NoError(t, err)

	// Ordinal neighbors come first, similarity hits after.
	require.Len(t, bundle.Siblings, 3)
	assert.Nil(t, bundle.Siblings[0].Score)
	assert.Nil(t, bundle.Siblings[1].Score)
	assert.NotNil(t, bundle.Siblings[2].Score)

	require.Len(t, bundle.Regulations, 1)
	require.Len(t, bundle.Guidance, 2)
	assert.Equal(t, "amc", bundle.Guidance[0].Source)
	assert.Equal(t, "gm", bundle.Guidance[1].Source)
	assert.Empty(t, bundle.Precedent)
	assert.Greater(t, bundle.TotalTokens, 0)
}

func TestBuildDeterministicForFixedCorpus(t *testing.T) {
	docId := uuid.New()
	repo := &fakeChunkRepo{window: []*entity.Chunk{focusChunk(docId)}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{
		retrieval.CorpusRegulation: {
			match("reg-0001", retrieval.CorpusRegulation, "Part-145.A.30 certifying staff requirements text.", 0.9, 0),
			match("reg-0002", retrieval.CorpusRegulation, "Part-145.A.35 additional certifying staff rules.", 0.8, 1),
		},
	}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	first, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{})
	require.NoError(t, err)
	second, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildWindowShadowsSimilarityHits(t *testing.T) {
	docId := uuid.New()
	repo := &fakeChunkRepo{window: []*entity.Chunk{
		{DocumentId: docId, ChunkId: "doc-0001", Ordinal: 1, Content: "Previous requirements for staff."},
		focusChunk(docId),
	}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{
		retrieval.CorpusDocument: {
			// Same chunk as the window neighbor and the focus itself.
			match("doc-0001", retrieval.CorpusDocument, "Previous requirements for staff.", 0.95, 0),
			match("doc-0002", retrieval.CorpusDocument, "Certifying staff shall be qualified per Section 4.2.", 0.99, 1),
		},
	}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	bundle, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{})
	require.NoError(t, err)

	require.Len(t, bundle.Siblings, 1)
	assert.Nil(t, bundle.Siblings[0].Score)
}

func TestBuildIncludesPrecedentWhenEvidenceOn(t *testing.T) {
	docId := uuid.New()
	repo := &fakeChunkRepo{window: []*entity.Chunk{focusChunk(docId)}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{
		retrieval.CorpusPrecedent: {
			match("prec-0001", retrieval.CorpusPrecedent, "Enforcement action over unqualified certifying staff.", 0.5, 0),
		},
	}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	bundle, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{IncludeEvidence: true})
	require.NoError(t, err)
	require.Len(t, bundle.Precedent, 1)
}

func TestBuildExtraQueryAddsSearches(t *testing.T) {
	docId := uuid.New()
	repo := &fakeChunkRepo{window: []*entity.Chunk{focusChunk(docId)}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	_, err := a.Build(context.Background(), focusChunk(docId), evidence.BuildOptions{
		ExtraQuery: "definition of critical part",
	})
	require.NoError(t, err)

	extra := 0
	for _, q := range ret.queries {
		if q.Text == "definition of critical part" {
			extra++
			assert.Contains(t, []string{retrieval.CorpusDocument, retrieval.CorpusRegulation}, q.Corpus)
		}
	}
	assert.Equal(t, 2, extra)
}

func TestBuildDistinctExtraQueriesGetDistinctCacheKeys(t *testing.T) {
	docId := uuid.New()
	focus := focusChunk(docId)
	repo := &fakeChunkRepo{window: []*entity.Chunk{focus}}
	ret := &fakeRetriever{matches: map[string][]retrieval.Match{}}
	a := NewAssembler(repo, ret, testConfig(), logger.NopLogger{})

	_, err := a.Build(context.Background(), focus, evidence.BuildOptions{
		ExtraQuery: "definition of critical part",
	})
	require.NoError(t, err)
	_, err = a.Build(context.Background(), focus, evidence.BuildOptions{
		ExtraQuery: "record retention period",
	})
	require.NoError(t, err)

	// A retriever cache keyed on the chunk alone would serve the first
	// query's hits to the second; the key has to carry the query text.
	extraKeys := make(map[string]string)
	for _, q := range ret.queries {
		if q.Text == focus.Content {
			continue
		}
		extraKeys[q.Text] = q.CacheKey
		assert.Contains(t, q.CacheKey, q.Text)
	}
	require.Len(t, extraKeys, 2)
	assert.NotEqual(t, extraKeys["definition of critical part"], extraKeys["record retention period"])
}

func TestBuildBudgetMultiplierScalesCeilings(t *testing.T) {
	a := NewAssembler(&fakeChunkRepo{}, &fakeRetriever{}, testConfig(), logger.NopLogger{})

	full := a.Budget(evidence.BuildOptions{})
	half := a.Budget(evidence.BuildOptions{BudgetMultiplier: 0.5})

	assert.Equal(t, 6000, full.TotalLimit)
	assert.Equal(t, 3000, half.TotalLimit)
	assert.Equal(t, 600, half.CategoryLimits[evidence.CategorySibling])
}
