package tokens

import (
	"testing"

	"compliance-audit-be/pkg/evidence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 { return &v }

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("ab"))
	assert.Equal(t, 2, Estimate("12345678"))
	assert.Equal(t, 25, Estimate(string(make([]rune, 100))))
}

func TestTrimDropsLowestSimilarityFirst(t *testing.T) {
	bundle := &evidence.Bundle{
		Regulations: []evidence.Slice{
			{Category: evidence.CategoryRegulation, Label: "high", TokenCount: 40, Score: score(0.9), Rank: 0},
			{Category: evidence.CategoryRegulation, Label: "low", TokenCount: 40, Score: score(0.3), Rank: 1},
			{Category: evidence.CategoryRegulation, Label: "mid", TokenCount: 40, Score: score(0.6), Rank: 2},
		},
	}
	Trim(bundle, Budget{CategoryLimits: map[string]int{evidence.CategoryRegulation: 80}})

	require.Len(t, bundle.Regulations, 2)
	assert.Equal(t, "high", bundle.Regulations[0].Label)
	assert.Equal(t, "mid", bundle.Regulations[1].Label)
	assert.True(t, bundle.Truncated)
	assert.Equal(t, 80, bundle.TokenBreakdown[evidence.CategoryRegulation])
}

func TestTrimKeepsOriginalOrder(t *testing.T) {
	bundle := &evidence.Bundle{
		Regulations: []evidence.Slice{
			{Category: evidence.CategoryRegulation, Label: "a", TokenCount: 30, Score: score(0.2), Rank: 0},
			{Category: evidence.CategoryRegulation, Label: "b", TokenCount: 30, Score: score(0.8), Rank: 1},
			{Category: evidence.CategoryRegulation, Label: "c", TokenCount: 30, Score: score(0.5), Rank: 2},
		},
	}
	Trim(bundle, Budget{CategoryLimits: map[string]int{evidence.CategoryRegulation: 60}})

	require.Len(t, bundle.Regulations, 2)
	assert.Equal(t, "b", bundle.Regulations[0].Label)
	assert.Equal(t, "c", bundle.Regulations[1].Label)
}

func TestTrimUnscoredSlicesDropLast(t *testing.T) {
	bundle := &evidence.Bundle{
		Siblings: []evidence.Slice{
			{Category: evidence.CategorySibling, Label: "neighbor", TokenCount: 50, Rank: 0},
			{Category: evidence.CategorySibling, Label: "retrieved", TokenCount: 50, Score: score(0.95), Rank: 1},
		},
	}
	Trim(bundle, Budget{CategoryLimits: map[string]int{evidence.CategorySibling: 50}})

	require.Len(t, bundle.Siblings, 1)
	assert.Equal(t, "neighbor", bundle.Siblings[0].Label)
}

func TestTrimPinnedSurvivesUnpinned(t *testing.T) {
	bundle := &evidence.Bundle{
		Regulations: []evidence.Slice{
			{Category: evidence.CategoryRegulation, Label: "pinned", TokenCount: 60, Score: score(0.1), Rank: 0, Pinned: true},
			{Category: evidence.CategoryRegulation, Label: "loose", TokenCount: 60, Score: score(0.99), Rank: 1},
		},
	}
	Trim(bundle, Budget{CategoryLimits: map[string]int{evidence.CategoryRegulation: 60}})

	require.Len(t, bundle.Regulations, 1)
	assert.Equal(t, "pinned", bundle.Regulations[0].Label)
}

func TestTrimZeroCeilingEmptiesCategory(t *testing.T) {
	bundle := &evidence.Bundle{
		Precedent: []evidence.Slice{
			{Category: evidence.CategoryPrecedent, Label: "p", TokenCount: 10, Score: score(0.9)},
		},
	}
	Trim(bundle, Budget{CategoryLimits: map[string]int{evidence.CategoryPrecedent: 0}})

	assert.Empty(t, bundle.Precedent)
	assert.True(t, bundle.Truncated)
}

func TestTrimGlobalPassShedsLastCategoryFirst(t *testing.T) {
	bundle := &evidence.Bundle{
		Focus: "12345678", // 2 tokens
		Siblings: []evidence.Slice{
			{Category: evidence.CategorySibling, Label: "s", TokenCount: 40, Score: score(0.9)},
		},
		Precedent: []evidence.Slice{
			{Category: evidence.CategoryPrecedent, Label: "p1", TokenCount: 40, Score: score(0.8), Rank: 0},
			{Category: evidence.CategoryPrecedent, Label: "p2", TokenCount: 40, Score: score(0.7), Rank: 1},
		},
	}
	Trim(bundle, Budget{TotalLimit: 90})

	assert.Len(t, bundle.Siblings, 1)
	require.Len(t, bundle.Precedent, 1)
	assert.Equal(t, "p1", bundle.Precedent[0].Label)
	assert.True(t, bundle.Truncated)
	assert.Equal(t, 82, bundle.TotalTokens)
}

func TestTrimNoopUnderBudget(t *testing.T) {
	bundle := &evidence.Bundle{
		Focus: "focus text here",
		Guidance: []evidence.Slice{
			{Category: evidence.CategoryGuidance, Label: "g", TokenCount: 20, Score: score(0.5)},
		},
	}
	Trim(bundle, Budget{
		CategoryLimits: map[string]int{evidence.CategoryGuidance: 100},
		TotalLimit:     200,
	})

	assert.Len(t, bundle.Guidance, 1)
	assert.False(t, bundle.Truncated)
	assert.Equal(t, 20, bundle.TokenBreakdown[evidence.CategoryGuidance])
}

func TestBudgetScale(t *testing.T) {
	b := Budget{
		CategoryLimits: map[string]int{evidence.CategorySibling: 1200},
		TotalLimit:     6000,
	}
	scaled := b.Scale(1.5)
	assert.Equal(t, 1800, scaled.CategoryLimits[evidence.CategorySibling])
	assert.Equal(t, 9000, scaled.TotalLimit)

	same := b.Scale(0)
	assert.Equal(t, b.TotalLimit, same.TotalLimit)
}
