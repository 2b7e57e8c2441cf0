package flagging

import (
	"context"
	"testing"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/analysis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFlagRepo stores flags keyed by (audit, chunk) like the database
// unique index does.
type memFlagRepo struct {
	flags map[string]*entity.Flag
}

func newMemFlagRepo() *memFlagRepo {
	return &memFlagRepo{flags: make(map[string]*entity.Flag)}
}

func flagKey(auditId uuid.UUID, chunkId string) string {
	return auditId.String() + "|" + chunkId
}

func (r *memFlagRepo) Upsert(ctx context.Context, flag *entity.Flag) error {
	key := flagKey(flag.AuditId, flag.ChunkId)
	if existing, ok := r.flags[key]; ok {
		flag.Id = existing.Id
	} else if flag.Id == uuid.Nil {
		flag.Id = uuid.New()
	}
	stored := *flag
	r.flags[key] = &stored
	return nil
}

func (r *memFlagRepo) FindByAuditAndChunk(ctx context.Context, auditId uuid.UUID, chunkId string) (*entity.Flag, error) {
	return r.flags[flagKey(auditId, chunkId)], nil
}

func (r *memFlagRepo) ListByAudit(ctx context.Context, auditId uuid.UUID, filter contract.FlagFilter) ([]*entity.Flag, error) {
	var out []*entity.Flag
	for _, f := range r.flags {
		if f.AuditId == auditId {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFlagRepo) CountByType(ctx context.Context, auditId uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int)
	for _, f := range r.flags {
		if f.AuditId == auditId {
			counts[f.FlagType]++
		}
	}
	return counts, nil
}

func testSynthesizer(repo contract.FlagRepository) *Synthesizer {
	return NewSynthesizer(repo, config.FlaggingConfig{CriticalThreshold: 80, GreenFloor: 20}, logger.NopLogger{})
}

func TestSynthesizeClampsCriticalScoreToRed(t *testing.T) {
	s := testSynthesizer(newMemFlagRepo())

	flag := s.Synthesize(&analysis.Result{Flag: "YELLOW", SeverityScore: 85, Findings: "Serious gap."}, 0)
	assert.Equal(t, entity.FlagRed, flag.FlagType)
}

func TestSynthesizeClampsNegligibleScoreToGreen(t *testing.T) {
	s := testSynthesizer(newMemFlagRepo())

	flag := s.Synthesize(&analysis.Result{Flag: "YELLOW", SeverityScore: 5, Findings: "Trivial note."}, 0)
	assert.Equal(t, entity.FlagGreen, flag.FlagType)
}

func TestSynthesizeKeepsConsistentLabel(t *testing.T) {
	s := testSynthesizer(newMemFlagRepo())

	flag := s.Synthesize(&analysis.Result{Flag: "YELLOW", SeverityScore: 50, Findings: "Ambiguity."}, 0)
	assert.Equal(t, entity.FlagYellow, flag.FlagType)

	flag = s.Synthesize(&analysis.Result{Flag: "RED", SeverityScore: 95, Findings: "Violation."}, 0)
	assert.Equal(t, entity.FlagRed, flag.FlagType)

	flag = s.Synthesize(&analysis.Result{Flag: "GREEN", SeverityScore: 0, Findings: "Compliant."}, 0)
	assert.Equal(t, entity.FlagGreen, flag.FlagType)
}

func TestSynthesizeDedupesCitations(t *testing.T) {
	s := testSynthesizer(newMemFlagRepo())

	flag := s.Synthesize(&analysis.Result{
		Flag:          "YELLOW",
		SeverityScore: 40,
		Findings:      "Missing reference.",
		Citations: analysis.CitationBlock{
			ManualSection:      "Section 4.2",
			RegulationSections: []string{"145.A.30", " 145.A.30 ", "145.A.35", ""},
		},
	}, 0)

	require.Len(t, flag.Citations, 3)
	assert.Equal(t, CitationManual, flag.Citations[0].CitationType)
	assert.Equal(t, "Section 4.2", flag.Citations[0].Reference)
	assert.Equal(t, "145.A.30", flag.Citations[1].Reference)
	assert.Equal(t, "145.A.35", flag.Citations[2].Reference)
}

func TestSynthesizeDefaultsEmptyFindings(t *testing.T) {
	s := testSynthesizer(newMemFlagRepo())

	flag := s.Synthesize(&analysis.Result{Flag: "GREEN", SeverityScore: 0, Findings: "  "}, 0)
	assert.Equal(t, "No findings provided.", flag.Findings)
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := newMemFlagRepo()
	s := testSynthesizer(repo)
	auditId := uuid.New()

	result := &analysis.Result{
		Flag:          "RED",
		SeverityScore: 90,
		Findings:      "Mandatory content missing.",
		Citations:     analysis.CitationBlock{ManualSection: "Section 2.1"},
	}

	first, err := s.Upsert(context.Background(), auditId, "doc-0001", result, 1)
	require.NoError(t, err)
	second, err := s.Upsert(context.Background(), auditId, "doc-0001", result, 1)
	require.NoError(t, err)

	require.Len(t, repo.flags, 1)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.FlagType, second.FlagType)
	assert.Equal(t, first.Findings, second.Findings)
	assert.Equal(t, 1, second.RefinementAttempts)
}
