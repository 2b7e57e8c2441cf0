// Package expansion grows a base context bundle by following cross
// references breadth-first: references found in the focus chunk resolve to
// passages, whose references resolve in turn, down to a bounded depth.
package expansion

import (
	"context"
	"fmt"
	"strings"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/assembler"
	"compliance-audit-be/pkg/evidence"
	"compliance-audit-be/pkg/reference"
	"compliance-audit-be/pkg/retrieval"
	"compliance-audit-be/pkg/tokens"

	"golang.org/x/sync/errgroup"
)

// Visit is one entry in the traversal arena. The arena records every
// chunk and reference the walk touched, keyed by normalized identifier,
// so cyclic corpora terminate and the walk is inspectable in tests.
type Visit struct {
	Kind  string // "chunk" or "reference"
	Key   string
	Depth int
}

type visitedIndex struct {
	arena []Visit
	index map[string]int
}

func newVisitedIndex() *visitedIndex {
	return &visitedIndex{index: make(map[string]int)}
}

// add records the identifier and reports whether it was new.
func (v *visitedIndex) add(kind, key string, depth int) bool {
	indexKey := kind + ":" + key
	if _, seen := v.index[indexKey]; seen {
		return false
	}
	v.index[indexKey] = len(v.arena)
	v.arena = append(v.arena, Visit{Kind: kind, Key: key, Depth: depth})
	return true
}

type node struct {
	chunkId string
	depth   int
}

type Engine struct {
	base      *assembler.Assembler
	chunks    contract.ChunkRepository
	retriever retrieval.Retriever
	extractor *reference.Extractor
	cfg       config.RecursionConfig
	logger    logger.ILogger
}

func NewEngine(
	base *assembler.Assembler,
	chunks contract.ChunkRepository,
	retriever retrieval.Retriever,
	cfg config.RecursionConfig,
	log logger.ILogger,
) *Engine {
	return &Engine{
		base:      base,
		chunks:    chunks,
		retriever: retriever,
		extractor: reference.NewExtractor(),
		cfg:       cfg,
		logger:    log,
	}
}

// Build satisfies the context builder contract of the compliance runner.
func (e *Engine) Build(ctx context.Context, chunk *entity.Chunk, opts evidence.BuildOptions) (*evidence.Bundle, error) {
	return e.Expand(ctx, chunk, opts)
}

// Expand assembles the base bundle for the root chunk and then walks its
// references breadth-first. Each level fully drains before the next
// starts; traversal stops at the configured depth. Slices from the base
// bundle are pinned so the final trim sheds expansion results first.
func (e *Engine) Expand(ctx context.Context, root *entity.Chunk, opts evidence.BuildOptions) (*evidence.Bundle, error) {
	bundle, err := e.base.Build(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	pinAll(bundle)

	visited := newVisitedIndex()
	seenByCategory := seedSeen(bundle, root.ChunkId)

	queue := []node{{chunkId: root.ChunkId, depth: 0}}
	for len(queue) > 0 {
		var next []node
		for _, n := range queue {
			if n.depth >= e.cfg.MaxDepth {
				continue
			}
			if !visited.add("chunk", n.chunkId, n.depth) {
				continue
			}
			enqueued, err := e.processNode(ctx, n, root, opts, visited, bundle, seenByCategory)
			if err != nil {
				return nil, err
			}
			next = append(next, enqueued...)
		}
		queue = next
	}

	tokens.Trim(bundle, e.base.Budget(opts))

	e.logger.Info("expansion", "recursive context built", map[string]interface{}{
		"chunk_id":    root.ChunkId,
		"visited":     len(visited.arena),
		"siblings":    len(bundle.Siblings),
		"regulations": len(bundle.Regulations),
		"precedent":   len(bundle.Precedent),
		"tokens":      bundle.TotalTokens,
	})
	return bundle, nil
}

// processNode resolves the references of one chunk and returns the nodes
// to walk at the next depth.
func (e *Engine) processNode(
	ctx context.Context,
	n node,
	root *entity.Chunk,
	opts evidence.BuildOptions,
	visited *visitedIndex,
	bundle *evidence.Bundle,
	seen map[string]map[string]struct{},
) ([]node, error) {
	chunk, err := e.chunks.FindByChunkId(ctx, n.chunkId)
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", n.chunkId, err)
	}
	if chunk == nil {
		return nil, nil
	}

	refs := e.extractor.Extract(chunk.Content)
	refining := opts.ExtraQuery != ""
	if refining && n.depth == 0 {
		// The refinement query resolves like any other reference.
		refs = append(refs, reference.Reference{Text: opts.ExtraQuery})
	}
	if e.cfg.MaxRefsPerNode > 0 && len(refs) > e.cfg.MaxRefsPerNode {
		refs = refs[:e.cfg.MaxRefsPerNode]
	}

	// Mark references in the arena before resolving so concurrent
	// resolution never races on the visited set.
	var pending []reference.Reference
	for _, ref := range refs {
		if visited.add("reference", ref.Key(), n.depth) {
			pending = append(pending, ref)
		}
	}

	e.logger.Debug("expansion", "resolving references", map[string]interface{}{
		"chunk_id": n.chunkId,
		"depth":    n.depth,
		"count":    len(pending),
	})

	type resolution struct {
		doc []retrieval.Match
		reg []retrieval.Match
	}
	resolutions := make([]resolution, len(pending))

	group, groupCtx := errgroup.WithContext(ctx)
	if e.cfg.MaxRefsPerNode > 0 {
		group.SetLimit(e.cfg.MaxRefsPerNode)
	}
	for i, ref := range pending {
		group.Go(func() error {
			queryText := ref.Text
			if ref.SectionNumber != "" {
				queryText = ref.Text + " " + ref.SectionNumber
			}
			doc, err := e.retriever.Search(groupCtx, retrieval.Query{
				Corpus:     retrieval.CorpusDocument,
				Text:       queryText,
				TopK:       5,
				CacheKey:   n.chunkId + "_ref_" + ref.Text,
				DocumentId: &root.DocumentId,
			})
			if err != nil {
				return err
			}
			resolutions[i].doc = doc

			if isRegulatory(ref.Text) || refining {
				reg, err := e.retriever.Search(groupCtx, retrieval.Query{
					Corpus:   retrieval.CorpusRegulation,
					Text:     queryText,
					TopK:     5,
					CacheKey: n.chunkId + "_ref_" + ref.Text,
				})
				if err != nil {
					return err
				}
				resolutions[i].reg = reg
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Join in reference order so the bundle is deterministic.
	var next []node
	for i, ref := range pending {
		for _, m := range resolutions[i].doc {
			if !addSlice(bundle, seen, evidence.CategorySibling, assembler.MatchToSlice(m, evidence.CategorySibling, "Referenced section: "+ref.Text)) {
				continue
			}
			next = append(next, node{chunkId: m.ChunkId, depth: n.depth + 1})
		}
		for _, m := range resolutions[i].reg {
			addSlice(bundle, seen, evidence.CategoryRegulation, assembler.MatchToSlice(m, evidence.CategoryRegulation, "Referenced regulation: "+ref.Text))
		}
	}

	if opts.IncludeEvidence && e.cfg.PrecedentPerRef > 0 {
		precedent, err := e.retriever.Search(ctx, retrieval.Query{
			Corpus:   retrieval.CorpusPrecedent,
			Text:     chunk.Content,
			TopK:     e.cfg.PrecedentPerRef,
			CacheKey: n.chunkId + "_precedent",
		})
		if err != nil {
			return nil, err
		}
		for _, m := range precedent {
			if !addSlice(bundle, seen, evidence.CategoryPrecedent, assembler.MatchToSlice(m, evidence.CategoryPrecedent, "Precedent")) {
				continue
			}
			// Precedent passages that cite further sections join the walk.
			if len(e.extractor.Extract(m.Content)) > 0 {
				next = append(next, node{chunkId: m.ChunkId, depth: n.depth + 1})
			}
		}
	}

	return next, nil
}

// isRegulatory reports whether a reference plausibly targets the
// regulation corpus rather than the document itself.
func isRegulatory(refText string) bool {
	lower := strings.ToLower(refText)
	for _, keyword := range []string{"part", "amc", "gm", "regulation"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func pinAll(bundle *evidence.Bundle) {
	for _, category := range evidence.Categories {
		slices := bundle.ByCategory(category)
		for i := range slices {
			slices[i].Pinned = true
		}
	}
}

// seedSeen indexes the chunk ids already present in the base bundle so
// expansion never adds a duplicate passage.
func seedSeen(bundle *evidence.Bundle, rootChunkId string) map[string]map[string]struct{} {
	seen := make(map[string]map[string]struct{}, len(evidence.Categories))
	for _, category := range evidence.Categories {
		seen[category] = make(map[string]struct{})
		for _, s := range bundle.ByCategory(category) {
			if id, ok := s.Metadata["chunk_id"].(string); ok {
				seen[category][id] = struct{}{}
			}
		}
	}
	seen[evidence.CategorySibling][rootChunkId] = struct{}{}
	return seen
}

func addSlice(bundle *evidence.Bundle, seen map[string]map[string]struct{}, category string, s evidence.Slice) bool {
	id, _ := s.Metadata["chunk_id"].(string)
	if id != "" {
		if _, dup := seen[category][id]; dup {
			return false
		}
		seen[category][id] = struct{}{}
	}
	bundle.SetCategory(category, append(bundle.ByCategory(category), s))
	return true
}
