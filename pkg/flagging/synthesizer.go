// Package flagging maps analysis results into persisted flags. Stored
// flags are keyed by (audit, chunk): re-running a chunk replaces its
// flag instead of accumulating duplicates.
package flagging

import (
	"context"
	"strings"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/analysis"

	"github.com/google/uuid"
)

const (
	CitationManual     = "manual"
	CitationRegulation = "regulation"
)

type Synthesizer struct {
	flags  contract.FlagRepository
	cfg    config.FlaggingConfig
	logger logger.ILogger
}

func NewSynthesizer(flags contract.FlagRepository, cfg config.FlaggingConfig, log logger.ILogger) *Synthesizer {
	return &Synthesizer{
		flags:  flags,
		cfg:    cfg,
		logger: log,
	}
}

// Synthesize maps one analysis result into a flag entity. The severity
// clamp overrides an inconsistent label: a critical score forces RED and
// a negligible score forces GREEN. Citations are deduplicated by
// (type, reference).
func (s *Synthesizer) Synthesize(result *analysis.Result, refinementAttempts int) *entity.Flag {
	findings := strings.TrimSpace(result.Findings)
	if findings == "" {
		findings = "No findings provided."
	}

	return &entity.Flag{
		FlagType:           s.clamp(result.Flag, result.SeverityScore),
		SeverityScore:      result.SeverityScore,
		Findings:           findings,
		Gaps:               []string(result.Gaps),
		Recommendations:    []string(result.Recommendations),
		Citations:          dedupeCitations(result.Citations),
		RefinementAttempts: refinementAttempts,
	}
}

// Upsert synthesizes and persists the flag for (audit, chunk). Calling
// it twice with the same result leaves a single identical flag.
func (s *Synthesizer) Upsert(ctx context.Context, auditId uuid.UUID, chunkId string, result *analysis.Result, refinementAttempts int) (*entity.Flag, error) {
	flag := s.Synthesize(result, refinementAttempts)
	flag.AuditId = auditId
	flag.ChunkId = chunkId

	if err := s.flags.Upsert(ctx, flag); err != nil {
		return nil, err
	}

	s.logger.Info("flagging", "flag persisted", map[string]interface{}{
		"audit_id":  auditId.String(),
		"chunk_id":  chunkId,
		"flag_type": flag.FlagType,
		"severity":  flag.SeverityScore,
	})
	return flag, nil
}

func (s *Synthesizer) clamp(label string, score int) string {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	switch normalized {
	case entity.FlagRed, entity.FlagYellow, entity.FlagGreen:
	default:
		// Unknown label: derive purely from the score.
		switch {
		case score >= s.cfg.CriticalThreshold:
			return entity.FlagRed
		case score >= 50:
			return entity.FlagYellow
		default:
			return entity.FlagGreen
		}
	}

	if score >= s.cfg.CriticalThreshold && normalized != entity.FlagRed {
		return entity.FlagRed
	}
	if score < s.cfg.GreenFloor && normalized != entity.FlagGreen {
		return entity.FlagGreen
	}
	return normalized
}

func dedupeCitations(block analysis.CitationBlock) []entity.Citation {
	var citations []entity.Citation
	seen := make(map[string]struct{})
	add := func(citationType, ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		key := citationType + "|" + ref
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		citations = append(citations, entity.Citation{
			CitationType: citationType,
			Reference:    ref,
		})
	}

	add(CitationManual, block.ManualSection)
	for _, ref := range block.RegulationSections {
		add(CitationRegulation, ref)
	}
	return citations
}
