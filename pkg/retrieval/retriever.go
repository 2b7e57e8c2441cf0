// Package retrieval runs ranked similarity searches over the embedded
// corpora. Results are deterministic for a fixed corpus snapshot: equal
// similarities break ties on ordinal and chunk id.
package retrieval

import (
	"context"

	"github.com/google/uuid"
)

// Embedding corpora. Each is a logical partition of the chunk_embeddings
// table selected by the Corpus column.
const (
	CorpusDocument   = "document"
	CorpusRegulation = "regulation"
	CorpusAMC        = "amc"
	CorpusGM         = "gm"
	CorpusPrecedent  = "precedent"
)

// Match is one ranked retrieval hit.
type Match struct {
	ChunkId     string
	DocumentId  uuid.UUID
	Corpus      string
	Ordinal     int
	SectionPath string
	Heading     string
	Content     string
	Similarity  float64
	// Rank is the zero-based position in the result set after filtering.
	Rank int
}

// Query describes one similarity search.
type Query struct {
	// Corpus selects the embedding partition ("document", "regulation",
	// "amc", "gm", "precedent"). A corpus with no rows yields an empty
	// result, not an error.
	Corpus string
	Text   string
	TopK   int
	// CacheKey enables result caching when non-empty. Callers scope the
	// key by chunk and query so repeated expansion passes reuse results.
	CacheKey string
	// DocumentId restricts the search to one document when set.
	DocumentId *uuid.UUID
}

// Retriever is the ranked search interface the assembler and expansion
// engine depend on.
type Retriever interface {
	Search(ctx context.Context, query Query) ([]Match, error)
}
