// Package runner executes one audit sequentially, chunk by chunk: build
// context, analyze, optionally refine, persist the flag, checkpoint.
// Processing survives interruption; a resumed run continues at the first
// chunk without a stored result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/analysis"
	"compliance-audit-be/pkg/evidence"
	"compliance-audit-be/pkg/flagging"

	"github.com/google/uuid"
)

// ContextBuilder assembles the evidence bundle for one chunk. Both the
// plain assembler and the recursive expansion engine satisfy it.
type ContextBuilder interface {
	Build(ctx context.Context, chunk *entity.Chunk, opts evidence.BuildOptions) (*evidence.Bundle, error)
}

// RunResult summarizes one runner invocation.
type RunResult struct {
	Processed int
	Failed    int
	Remaining int64
	Status    string
	// FailureReason is set when the run lands in the failed status.
	FailureReason string
}

type Runner struct {
	audits      contract.AuditRepository
	chunks      contract.ChunkRepository
	results     contract.AuditChunkResultRepository
	scores      contract.ComplianceScoreRepository
	flags       contract.FlagRepository
	builder     ContextBuilder
	client      analysis.Client
	synthesizer *flagging.Synthesizer
	refinement  config.RefinementConfig
	cfg         config.RunnerConfig
	logger      logger.ILogger
}

func NewRunner(
	audits contract.AuditRepository,
	chunks contract.ChunkRepository,
	results contract.AuditChunkResultRepository,
	scores contract.ComplianceScoreRepository,
	flags contract.FlagRepository,
	builder ContextBuilder,
	client analysis.Client,
	synthesizer *flagging.Synthesizer,
	refinement config.RefinementConfig,
	cfg config.RunnerConfig,
	log logger.ILogger,
) *Runner {
	return &Runner{
		audits:      audits,
		chunks:      chunks,
		results:     results,
		scores:      scores,
		flags:       flags,
		builder:     builder,
		client:      client,
		synthesizer: synthesizer,
		refinement:  refinement,
		cfg:         cfg,
		logger:      log,
	}
}

// Run drives the audit to a terminal status or to cancellation. It is
// safe to call on a previously interrupted audit; flagged chunks are
// never reprocessed.
func (r *Runner) Run(ctx context.Context, auditId uuid.UUID) (*RunResult, error) {
	audit, err := r.audits.FindById(ctx, auditId)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, fmt.Errorf("audit %s not found", auditId)
	}
	if audit.Terminal() {
		remaining, _ := r.chunks.CountPending(ctx, audit.DocumentId, audit.Id)
		return &RunResult{Remaining: remaining, Status: audit.Status}, nil
	}
	if audit.Status == entity.AuditStatusCancelling {
		return r.finishCancelled(ctx, audit, 0)
	}

	if err := r.ensureChunkTotal(ctx, audit); err != nil {
		return nil, err
	}

	audit.Status = entity.AuditStatusRunning
	if audit.StartedAt == nil {
		now := time.Now().UTC()
		audit.StartedAt = &now
	}
	if err := r.audits.Update(ctx, audit); err != nil {
		return nil, err
	}

	r.logger.Info("runner", "audit started", map[string]interface{}{
		"audit_id":    audit.Id.String(),
		"document_id": audit.DocumentId.String(),
		"draft":       audit.IsDraft,
		"chunk_total": audit.ChunkTotal,
	})

	limit := 0
	if audit.IsDraft && r.cfg.DraftChunkLimit > 0 {
		limit = r.cfg.DraftChunkLimit
	}
	pending, err := r.chunks.FindPending(ctx, audit.DocumentId, audit.Id, limit)
	if err != nil {
		return nil, err
	}

	processed := 0
	for _, chunk := range pending {
		state := r.processChunk(ctx, audit, chunk)
		switch state.Phase {
		case PhaseFlagged:
			audit.ChunkCompleted++
		case PhaseFailed:
			if errors.Is(state.Err, context.Canceled) {
				return r.finishCancelled(ctx, audit, processed)
			}
			audit.ChunkFailed++
			r.logger.Error("runner", "chunk failed", map[string]interface{}{
				"audit_id": audit.Id.String(),
				"chunk_id": chunk.ChunkId,
				"error":    state.Err.Error(),
			})
		}
		processed++
		audit.LastChunkId = &chunk.ChunkId

		// Cooperative cancellation: checked between chunks, never inside one.
		if cancelled, err := r.cancellationRequested(ctx, audit); err != nil {
			return nil, err
		} else if cancelled {
			return r.finishCancelled(ctx, audit, processed)
		}

		// Checkpoint moves only after the chunk outcome is durable. The
		// write never touches the status column, so a cancel request
		// landing mid-chunk survives until the next check above.
		if err := r.audits.SaveProgress(ctx, audit); err != nil {
			return nil, err
		}
	}

	return r.finishDrained(ctx, audit, processed)
}

// processChunk walks one chunk through its state machine. Failures are
// contained: the chunk lands in PhaseFailed and the run continues.
func (r *Runner) processChunk(ctx context.Context, audit *entity.Audit, chunk *entity.Chunk) ChunkState {
	state := NewChunkState()

	opts := r.buildOptions(audit, "")
	bundle, err := r.builder.Build(ctx, chunk, opts)
	if err != nil {
		state = state.WithFailure(fmt.Errorf("build context: %w", err))
		r.persistFailure(ctx, audit, chunk, state)
		return state
	}
	state = state.WithContext(bundle)

	result, err := r.client.Analyze(ctx, chunk, bundle)
	if err != nil {
		state = state.WithFailure(err)
		r.persistFailure(ctx, audit, chunk, state)
		return state
	}
	state = state.WithAnalysis(result)

	refinementEnabled := !audit.IsDraft && r.refinement.MaxAttempts > 0
	for {
		decision, query := state.Next(r.refinement.MaxAttempts, refinementEnabled)
		if decision == DecideFlag {
			break
		}
		state = state.WithRefinement(query)
		r.logger.Info("runner", "refining context", map[string]interface{}{
			"audit_id": audit.Id.String(),
			"chunk_id": chunk.ChunkId,
			"attempt":  state.Attempts,
			"query":    query,
		})

		refinedOpts := r.refineOptions(audit, query)
		bundle, err = r.builder.Build(ctx, chunk, refinedOpts)
		if err != nil {
			state = state.WithFailure(fmt.Errorf("refine context: %w", err))
			r.persistFailure(ctx, audit, chunk, state)
			return state
		}
		state = state.WithContext(bundle)

		result, err = r.client.Analyze(ctx, chunk, bundle)
		if err != nil {
			state = state.WithFailure(err)
			r.persistFailure(ctx, audit, chunk, state)
			return state
		}
		state = state.WithAnalysis(result)
	}

	if err := r.persistOutcome(ctx, audit, chunk, state); err != nil {
		state = state.WithFailure(err)
		r.persistFailure(ctx, audit, chunk, state)
		return state
	}
	return state.WithFlag()
}

// persistOutcome upserts the flag and then stores the result row. The
// flag goes first: pending scans treat a result row as "done", so a
// crash between the two writes leaves the chunk re-runnable and the
// idempotent upsert replaces the flag on the rerun. A chunk never gets
// a completed row without a durable flag.
func (r *Runner) persistOutcome(ctx context.Context, audit *entity.Audit, chunk *entity.Chunk, state ChunkState) error {
	if _, err := r.synthesizer.Upsert(ctx, audit.Id, chunk.ChunkId, state.Result, state.Attempts); err != nil {
		return fmt.Errorf("persist flag: %w", err)
	}
	result := &entity.AuditChunkResult{
		AuditId:           audit.Id,
		ChunkId:           chunk.ChunkId,
		Ordinal:           chunk.Ordinal,
		Status:            entity.ChunkResultCompleted,
		Analysis:          analysisPayload(state),
		ContextTokenCount: state.Bundle.TotalTokens,
	}
	if err := r.results.Create(ctx, result); err != nil {
		return fmt.Errorf("persist chunk result: %w", err)
	}
	return nil
}

func (r *Runner) persistFailure(ctx context.Context, audit *entity.Audit, chunk *entity.Chunk, state ChunkState) {
	reason := truncateReason(state.Err.Error())
	result := &entity.AuditChunkResult{
		AuditId:       audit.Id,
		ChunkId:       chunk.ChunkId,
		Ordinal:       chunk.Ordinal,
		Status:        entity.ChunkResultFailed,
		FailureReason: &reason,
	}
	if err := r.results.Create(ctx, result); err != nil {
		r.logger.Error("runner", "failed to persist chunk failure", map[string]interface{}{
			"audit_id": audit.Id.String(),
			"chunk_id": chunk.ChunkId,
			"error":    err.Error(),
		})
	}
}

// analysisPayload flattens the verdict and a compact bundle summary into
// the stored result row.
func analysisPayload(state ChunkState) map[string]interface{} {
	payload := map[string]interface{}{
		"flag":                     state.Result.Flag,
		"severity_score":           state.Result.SeverityScore,
		"findings":                 state.Result.Findings,
		"regulation_references":    []string(state.Result.RegulationReferences),
		"gaps":                     []string(state.Result.Gaps),
		"recommendations":          []string(state.Result.Recommendations),
		"needs_additional_context": state.Result.NeedsAdditionalContext,
	}
	if state.Attempts > 0 {
		payload["refined"] = true
		payload["refinement_attempts"] = state.Attempts
	}
	payload["context_summary"] = bundleSummary(state.Bundle)
	return payload
}

func bundleSummary(bundle *evidence.Bundle) map[string]interface{} {
	summary := map[string]interface{}{
		"total_tokens":    bundle.TotalTokens,
		"truncated":       bundle.Truncated,
		"token_breakdown": bundle.TokenBreakdown,
	}
	for _, category := range evidence.Categories {
		slices := bundle.ByCategory(category)
		summary[category+"_count"] = len(slices)
		previews := make([]map[string]interface{}, 0, len(slices))
		for i, s := range slices {
			if i == 20 {
				break
			}
			previews = append(previews, map[string]interface{}{
				"label":           s.Label,
				"content_preview": preview(s.Content),
				"tokens":          s.TokenCount,
				"score":           s.Score,
			})
		}
		summary[category] = previews
	}
	return summary
}

func preview(content string) string {
	const max = 200
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}

func (r *Runner) buildOptions(audit *entity.Audit, extraQuery string) evidence.BuildOptions {
	opts := evidence.BuildOptions{
		IncludeEvidence: r.cfg.IncludeEvidence && !audit.IsDraft,
		ExtraQuery:      extraQuery,
	}
	if audit.IsDraft {
		zero := 0
		opts.NeighborWindow = &zero
		opts.BudgetMultiplier = 0.5
	}
	return opts
}

func (r *Runner) refineOptions(audit *entity.Audit, query string) evidence.BuildOptions {
	window := r.refinement.NeighborWindow
	multiplier := r.refinement.TokenMultiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	return evidence.BuildOptions{
		NeighborWindow:   &window,
		BudgetMultiplier: multiplier,
		IncludeEvidence:  r.refinement.IncludeEvidence || r.cfg.IncludeEvidence,
		ExtraQuery:       query,
	}
}

func (r *Runner) ensureChunkTotal(ctx context.Context, audit *entity.Audit) error {
	if audit.ChunkTotal > 0 {
		return nil
	}
	total, err := r.chunks.CountByDocument(ctx, audit.DocumentId)
	if err != nil {
		return err
	}
	audit.ChunkTotal = int(total)
	return nil
}

func (r *Runner) cancellationRequested(ctx context.Context, audit *entity.Audit) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, nil
	}
	current, err := r.audits.FindById(ctx, audit.Id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, fmt.Errorf("audit %s disappeared mid-run", audit.Id)
	}
	return current.Status == entity.AuditStatusCancelling, nil
}

func (r *Runner) finishCancelled(ctx context.Context, audit *entity.Audit, processed int) (*RunResult, error) {
	now := time.Now().UTC()
	audit.Status = entity.AuditStatusCancelled
	audit.CancelledAt = &now
	if err := r.audits.Update(ctx, audit); err != nil {
		return nil, err
	}
	remaining, err := r.chunks.CountPending(ctx, audit.DocumentId, audit.Id)
	if err != nil {
		return nil, err
	}
	r.logger.Info("runner", "audit cancelled", map[string]interface{}{
		"audit_id":  audit.Id.String(),
		"processed": processed,
		"remaining": remaining,
	})
	return &RunResult{
		Processed: processed,
		Failed:    audit.ChunkFailed,
		Remaining: remaining,
		Status:    audit.Status,
	}, nil
}

// finishDrained decides the terminal status once the pending set is
// exhausted. The failure-rate threshold is evaluated here, not
// mid-run, so a burst of early failures never aborts chunks that would
// have succeeded.
func (r *Runner) finishDrained(ctx context.Context, audit *entity.Audit, processed int) (*RunResult, error) {
	remaining, err := r.chunks.CountPending(ctx, audit.DocumentId, audit.Id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch {
	case remaining > 0:
		// Draft runs stop early by design; the audit stays resumable.
		r.logger.Info("runner", "audit paused with chunks remaining", map[string]interface{}{
			"audit_id":  audit.Id.String(),
			"remaining": remaining,
		})
	case r.exceedsFailureThreshold(audit):
		reason := truncateReason(fmt.Sprintf(
			"chunk failure rate %.1f%% exceeded threshold %.1f%% (%d of %d chunks failed)",
			failureRate(audit)*100,
			r.cfg.FailureRateThreshold*100,
			audit.ChunkFailed,
			audit.ChunkTotal,
		))
		audit.Status = entity.AuditStatusFailed
		audit.FailedAt = &now
		audit.FailureReason = &reason
	default:
		audit.Status = entity.AuditStatusCompleted
		audit.CompletedAt = &now
	}

	if err := r.audits.Update(ctx, audit); err != nil {
		return nil, err
	}

	if audit.Status == entity.AuditStatusCompleted {
		if err := r.recordScore(ctx, audit); err != nil {
			r.logger.Warn("runner", "failed to record compliance score", map[string]interface{}{
				"audit_id": audit.Id.String(),
				"error":    err.Error(),
			})
		}
	}

	r.logger.Info("runner", "audit drained", map[string]interface{}{
		"audit_id":  audit.Id.String(),
		"status":    audit.Status,
		"processed": processed,
		"completed": audit.ChunkCompleted,
		"failed":    audit.ChunkFailed,
	})

	runResult := &RunResult{
		Processed: processed,
		Failed:    audit.ChunkFailed,
		Remaining: remaining,
		Status:    audit.Status,
	}
	if audit.FailureReason != nil {
		runResult.FailureReason = *audit.FailureReason
	}
	return runResult, nil
}

func (r *Runner) exceedsFailureThreshold(audit *entity.Audit) bool {
	if r.cfg.FailureRateThreshold <= 0 || audit.ChunkFailed == 0 {
		return false
	}
	return failureRate(audit) > r.cfg.FailureRateThreshold
}

func failureRate(audit *entity.Audit) float64 {
	if audit.ChunkTotal == 0 {
		return 0
	}
	return float64(audit.ChunkFailed) / float64(audit.ChunkTotal)
}

// recordScore writes the per-audit rollup: overall = 100 minus the
// average weighted severity, RED weighing 1.0 and YELLOW 0.5.
func (r *Runner) recordScore(ctx context.Context, audit *entity.Audit) error {
	counts, err := r.flags.CountByType(ctx, audit.Id)
	if err != nil {
		return err
	}
	red := counts[entity.FlagRed]
	yellow := counts[entity.FlagYellow]
	green := counts[entity.FlagGreen]
	total := red + yellow + green

	overall := 100.0
	if total > 0 {
		weighted := float64(red)*1.0 + float64(yellow)*0.5
		overall = 100.0 - weighted/float64(total)*100.0
	}

	return r.scores.Create(ctx, &entity.ComplianceScore{
		AuditId:      audit.Id,
		OverallScore: overall,
		RedCount:     red,
		YellowCount:  yellow,
		GreenCount:   green,
		TotalFlags:   total,
	})
}

func truncateReason(reason string) string {
	const max = 500
	if len(reason) <= max {
		return reason
	}
	return reason[:497] + "..."
}
