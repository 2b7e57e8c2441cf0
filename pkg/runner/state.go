package runner

import (
	"compliance-audit-be/pkg/analysis"
	"compliance-audit-be/pkg/evidence"
)

// Phase is the processing stage of one chunk within a run.
type Phase string

const (
	PhasePending      Phase = "pending"
	PhaseContextBuilt Phase = "context-built"
	PhaseAnalyzed     Phase = "analyzed"
	PhaseRefining     Phase = "refining"
	PhaseFlagged      Phase = "flagged"
	PhaseFailed       Phase = "failed"
)

// ChunkState is the tagged per-chunk state. Transitions are pure: each
// returns a new state and never touches storage, so every step is
// testable in isolation.
type ChunkState struct {
	Phase Phase
	// Attempts counts completed refinement passes.
	Attempts int
	// LastQuery is the follow-up query of the latest refinement pass.
	// A repeated identical query means no progress, so refinement stops.
	LastQuery string
	Bundle    *evidence.Bundle
	Result    *analysis.Result
	Err       error
}

func NewChunkState() ChunkState {
	return ChunkState{Phase: PhasePending}
}

// WithContext records the assembled bundle.
func (s ChunkState) WithContext(bundle *evidence.Bundle) ChunkState {
	s.Phase = PhaseContextBuilt
	s.Bundle = bundle
	return s
}

// WithAnalysis records the model verdict.
func (s ChunkState) WithAnalysis(result *analysis.Result) ChunkState {
	s.Phase = PhaseAnalyzed
	s.Result = result
	return s
}

// WithRefinement marks the start of a refinement pass for the query.
func (s ChunkState) WithRefinement(query string) ChunkState {
	s.Phase = PhaseRefining
	s.Attempts++
	s.LastQuery = query
	return s
}

// WithFlag marks the chunk as flagged.
func (s ChunkState) WithFlag() ChunkState {
	s.Phase = PhaseFlagged
	return s
}

// WithFailure marks the chunk as failed.
func (s ChunkState) WithFailure(err error) ChunkState {
	s.Phase = PhaseFailed
	s.Err = err
	return s
}

// Decision is what follows an analyzed state.
type Decision int

const (
	DecideFlag Decision = iota
	DecideRefine
)

// Next decides whether an analyzed chunk is flagged as-is or refined
// once more. Refinement requires: the model asked for more context with
// a concrete query, attempts remain, and the query differs from the
// previous one (strict string equality, no fuzzy matching).
func (s ChunkState) Next(maxAttempts int, refinementEnabled bool) (Decision, string) {
	if !refinementEnabled || s.Result == nil {
		return DecideFlag, ""
	}
	if !s.Result.NeedsAdditionalContext {
		return DecideFlag, ""
	}
	query := s.Result.ContextQuery
	if query == "" {
		return DecideFlag, ""
	}
	if s.Attempts >= maxAttempts {
		return DecideFlag, ""
	}
	if query == s.LastQuery {
		return DecideFlag, ""
	}
	return DecideRefine, query
}
