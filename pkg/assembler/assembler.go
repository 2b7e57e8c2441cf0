// Package assembler builds the context bundle for one chunk: ordinal
// neighbors plus ranked retrieval from the regulation, guidance, and
// precedent corpora, trimmed to the configured token budgets.
package assembler

import (
	"context"
	"fmt"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/evidence"
	"compliance-audit-be/pkg/retrieval"
	"compliance-audit-be/pkg/tokens"

	"golang.org/x/sync/errgroup"
)

type Assembler struct {
	chunks    contract.ChunkRepository
	retriever retrieval.Retriever
	cfg       config.ContextConfig
	logger    logger.ILogger
}

func NewAssembler(
	chunks contract.ChunkRepository,
	retriever retrieval.Retriever,
	cfg config.ContextConfig,
	log logger.ILogger,
) *Assembler {
	return &Assembler{
		chunks:    chunks,
		retriever: retriever,
		cfg:       cfg,
		logger:    log,
	}
}

// Build assembles the context bundle for the chunk. Neighbor lookup runs
// first; the four retrieval steps run concurrently and re-join in fixed
// category order so the output is deterministic for a fixed corpus.
func (a *Assembler) Build(ctx context.Context, chunk *entity.Chunk, opts evidence.BuildOptions) (*evidence.Bundle, error) {
	if chunk == nil {
		return nil, fmt.Errorf("assemble context: chunk is nil")
	}

	bundle := &evidence.Bundle{
		Focus:      chunk.Content,
		FocusLabel: focusLabel(chunk),
	}

	window := a.cfg.NeighborWindow
	if opts.NeighborWindow != nil {
		window = *opts.NeighborWindow
	}

	neighbors, err := a.collectNeighbors(ctx, chunk, window)
	if err != nil {
		return nil, fmt.Errorf("collect neighbors: %w", err)
	}

	query := chunk.Content

	var (
		similar    []retrieval.Match
		regulation []retrieval.Match
		amc        []retrieval.Match
		gm         []retrieval.Match
		precedent  []retrieval.Match
		extraDoc   []retrieval.Match
		extraReg   []retrieval.Match
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		similar, err = a.retriever.Search(groupCtx, retrieval.Query{
			Corpus:     retrieval.CorpusDocument,
			Text:       query,
			TopK:       a.cfg.SiblingTopK,
			CacheKey:   chunk.ChunkId + "_base",
			DocumentId: &chunk.DocumentId,
		})
		return err
	})
	group.Go(func() error {
		var err error
		regulation, err = a.retriever.Search(groupCtx, retrieval.Query{
			Corpus:   retrieval.CorpusRegulation,
			Text:     query,
			TopK:     a.cfg.RegulationTopK,
			CacheKey: chunk.ChunkId + "_base",
		})
		return err
	})
	group.Go(func() error {
		var err error
		amc, err = a.retriever.Search(groupCtx, retrieval.Query{
			Corpus:   retrieval.CorpusAMC,
			Text:     query,
			TopK:     a.cfg.GuidanceTopK,
			CacheKey: chunk.ChunkId + "_base",
		})
		return err
	})
	group.Go(func() error {
		var err error
		gm, err = a.retriever.Search(groupCtx, retrieval.Query{
			Corpus:   retrieval.CorpusGM,
			Text:     query,
			TopK:     a.cfg.GuidanceTopK,
			CacheKey: chunk.ChunkId + "_base",
		})
		return err
	})
	if opts.IncludeEvidence && a.cfg.PrecedentTopK > 0 {
		group.Go(func() error {
			var err error
			precedent, err = a.retriever.Search(groupCtx, retrieval.Query{
				Corpus:   retrieval.CorpusPrecedent,
				Text:     query,
				TopK:     a.cfg.PrecedentTopK,
				CacheKey: chunk.ChunkId + "_base",
			})
			return err
		})
	}
	if opts.ExtraQuery != "" {
		// Refinement adds a targeted query on top of the chunk content.
		// The cache key carries the query text: successive refinement
		// passes ask different questions and must not share cached hits.
		extraKey := chunk.ChunkId + "_extra_" + opts.ExtraQuery
		group.Go(func() error {
			var err error
			extraDoc, err = a.retriever.Search(groupCtx, retrieval.Query{
				Corpus:     retrieval.CorpusDocument,
				Text:       opts.ExtraQuery,
				TopK:       a.cfg.SiblingTopK,
				CacheKey:   extraKey,
				DocumentId: &chunk.DocumentId,
			})
			return err
		})
		group.Go(func() error {
			var err error
			extraReg, err = a.retriever.Search(groupCtx, retrieval.Query{
				Corpus:   retrieval.CorpusRegulation,
				Text:     opts.ExtraQuery,
				TopK:     a.cfg.RegulationTopK,
				CacheKey: extraKey,
			})
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Window chunks shadow similarity hits for the same chunk id.
	seen := map[string]struct{}{chunk.ChunkId: {}}
	for _, n := range neighbors {
		if id, ok := n.Metadata["chunk_id"].(string); ok {
			seen[id] = struct{}{}
		}
	}
	siblings := neighbors
	for _, m := range append(similar, extraDoc...) {
		if _, dup := seen[m.ChunkId]; dup {
			continue
		}
		seen[m.ChunkId] = struct{}{}
		siblings = append(siblings, MatchToSlice(m, evidence.CategorySibling, "Document (similar)"))
	}
	bundle.Siblings = siblings

	regSeen := make(map[string]struct{})
	for _, m := range append(regulation, extraReg...) {
		if _, dup := regSeen[m.ChunkId]; dup {
			continue
		}
		regSeen[m.ChunkId] = struct{}{}
		bundle.Regulations = append(bundle.Regulations, MatchToSlice(m, evidence.CategoryRegulation, "Regulation"))
	}

	for _, m := range amc {
		bundle.Guidance = append(bundle.Guidance, MatchToSlice(m, evidence.CategoryGuidance, "AMC"))
	}
	for _, m := range gm {
		bundle.Guidance = append(bundle.Guidance, MatchToSlice(m, evidence.CategoryGuidance, "GM"))
	}
	for _, m := range precedent {
		bundle.Precedent = append(bundle.Precedent, MatchToSlice(m, evidence.CategoryPrecedent, "Precedent"))
	}

	tokens.Trim(bundle, a.Budget(opts))

	a.logger.Info("assembler", "context bundle built", map[string]interface{}{
		"chunk_id":    chunk.ChunkId,
		"siblings":    len(bundle.Siblings),
		"regulations": len(bundle.Regulations),
		"guidance":    len(bundle.Guidance),
		"precedent":   len(bundle.Precedent),
		"tokens":      bundle.TotalTokens,
		"truncated":   bundle.Truncated,
	})
	if len(bundle.Regulations) == 0 {
		a.logger.Warn("assembler", "no regulation context retrieved", map[string]interface{}{
			"chunk_id": chunk.ChunkId,
		})
	}

	return bundle, nil
}

// Budget returns the token budget for one build, scaled by the options.
func (a *Assembler) Budget(opts evidence.BuildOptions) tokens.Budget {
	budget := tokens.Budget{
		CategoryLimits: map[string]int{
			evidence.CategorySibling:    a.cfg.SiblingTokenLimit,
			evidence.CategoryRegulation: a.cfg.RegulationTokenLimit,
			evidence.CategoryGuidance:   a.cfg.GuidanceTokenLimit,
			evidence.CategoryPrecedent:  a.cfg.PrecedentTokenLimit,
		},
		TotalLimit: a.cfg.TotalTokenLimit,
	}
	return budget.Scale(opts.BudgetMultiplier)
}

func (a *Assembler) collectNeighbors(ctx context.Context, chunk *entity.Chunk, window int) ([]evidence.Slice, error) {
	if window <= 0 {
		return nil, nil
	}
	chunks, err := a.chunks.FindWindow(ctx, chunk.DocumentId, chunk.Ordinal, window)
	if err != nil {
		return nil, err
	}
	slices := make([]evidence.Slice, 0, len(chunks))
	for _, c := range chunks {
		if c.ChunkId == chunk.ChunkId {
			continue
		}
		slices = append(slices, evidence.Slice{
			Category:   evidence.CategorySibling,
			Label:      neighborLabel(c, chunk.Ordinal),
			Source:     retrieval.CorpusDocument,
			Content:    c.Content,
			TokenCount: tokens.Estimate(c.Content),
			Metadata: map[string]interface{}{
				"chunk_id": c.ChunkId,
				"heading":  c.Heading,
			},
		})
	}
	return slices, nil
}

// MatchToSlice converts a retrieval hit into an evidence slice.
func MatchToSlice(m retrieval.Match, category, labelPrefix string) evidence.Slice {
	similarity := m.Similarity
	var label string
	if m.SectionPath != "" {
		label = fmt.Sprintf("%s %s", labelPrefix, m.SectionPath)
	} else {
		label = fmt.Sprintf("%s match %d", labelPrefix, m.Rank+1)
	}
	return evidence.Slice{
		Category:   category,
		Label:      label,
		Source:     m.Corpus,
		Content:    m.Content,
		TokenCount: tokens.Estimate(m.Content),
		Score:      &similarity,
		Rank:       m.Rank,
		Metadata: map[string]interface{}{
			"chunk_id": m.ChunkId,
			"heading":  m.Heading,
		},
	}
}

func focusLabel(chunk *entity.Chunk) string {
	if chunk.SectionPath != "" {
		return chunk.SectionPath
	}
	return chunk.ChunkId
}

func neighborLabel(c *entity.Chunk, focusOrdinal int) string {
	position := "Preceding"
	if c.Ordinal > focusOrdinal {
		position = "Following"
	}
	if c.SectionPath != "" {
		return fmt.Sprintf("%s section %s", position, c.SectionPath)
	}
	return fmt.Sprintf("%s chunk %d", position, c.Ordinal)
}
