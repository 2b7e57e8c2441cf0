package runner

import (
	"testing"

	"compliance-audit-be/pkg/analysis"
	"compliance-audit-be/pkg/evidence"

	"github.com/stretchr/testify/assert"
)

func analyzed(result *analysis.Result) ChunkState {
	return NewChunkState().
		WithContext(&evidence.Bundle{}).
		WithAnalysis(result)
}

func TestNextFlagsWhenSatisfied(t *testing.T) {
	state := analyzed(&analysis.Result{Flag: "GREEN", Findings: "ok"})

	decision, query := state.Next(1, true)
	assert.Equal(t, DecideFlag, decision)
	assert.Empty(t, query)
}

func TestNextRefinesOnNewQuery(t *testing.T) {
	state := analyzed(&analysis.Result{
		Flag:                   "YELLOW",
		Findings:               "unsure",
		NeedsAdditionalContext: true,
		ContextQuery:           "definition of critical part",
	})

	decision, query := state.Next(1, true)
	assert.Equal(t, DecideRefine, decision)
	assert.Equal(t, "definition of critical part", query)
}

func TestNextStopsOnRepeatedQuery(t *testing.T) {
	result := &analysis.Result{
		Flag:                   "YELLOW",
		Findings:               "still unsure",
		NeedsAdditionalContext: true,
		ContextQuery:           "definition of critical part",
	}
	state := analyzed(result).
		WithRefinement("definition of critical part").
		WithContext(&evidence.Bundle{}).
		WithAnalysis(result)

	decision, _ := state.Next(5, true)
	assert.Equal(t, DecideFlag, decision)
	assert.Equal(t, 1, state.Attempts)
}

func TestNextStopsWhenAttemptsExhausted(t *testing.T) {
	result := &analysis.Result{
		Flag:                   "YELLOW",
		Findings:               "unsure",
		NeedsAdditionalContext: true,
		ContextQuery:           "a different query each time",
	}
	state := analyzed(result).
		WithRefinement("first query").
		WithContext(&evidence.Bundle{}).
		WithAnalysis(result)

	decision, _ := state.Next(1, true)
	assert.Equal(t, DecideFlag, decision)
}

func TestNextFlagsWhenRefinementDisabled(t *testing.T) {
	state := analyzed(&analysis.Result{
		Flag:                   "YELLOW",
		Findings:               "unsure",
		NeedsAdditionalContext: true,
		ContextQuery:           "anything",
	})

	decision, _ := state.Next(1, false)
	assert.Equal(t, DecideFlag, decision)
}

func TestNextFlagsWithoutConcreteQuery(t *testing.T) {
	state := analyzed(&analysis.Result{
		Flag:                   "YELLOW",
		Findings:               "unsure",
		NeedsAdditionalContext: true,
	})

	decision, _ := state.Next(1, true)
	assert.Equal(t, DecideFlag, decision)
}

func TestTransitionsCarryFields(t *testing.T) {
	bundle := &evidence.Bundle{TotalTokens: 42}
	result := &analysis.Result{Flag: "GREEN", Findings: "ok"}

	state := NewChunkState()
	assert.Equal(t, PhasePending, state.Phase)

	state = state.WithContext(bundle)
	assert.Equal(t, PhaseContextBuilt, state.Phase)

	state = state.WithAnalysis(result)
	assert.Equal(t, PhaseAnalyzed, state.Phase)
	assert.Same(t, bundle, state.Bundle)
	assert.Same(t, result, state.Result)

	state = state.WithRefinement("query")
	assert.Equal(t, PhaseRefining, state.Phase)
	assert.Equal(t, 1, state.Attempts)
	assert.Equal(t, "query", state.LastQuery)

	state = state.WithFlag()
	assert.Equal(t, PhaseFlagged, state.Phase)
	assert.Equal(t, 1, state.Attempts)
}
