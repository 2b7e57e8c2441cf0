package contract

import (
	"context"

	"compliance-audit-be/internal/entity"

	"github.com/google/uuid"
)

// FlagFilter narrows ListByAudit. Zero values mean "no filter".
type FlagFilter struct {
	Classification     string
	ReferenceSubstring string
}

type FlagRepository interface {
	// Upsert writes the flag keyed by (audit, chunk), replacing any prior flag
	// and its citations. The stored row keeps its original id on replace.
	Upsert(ctx context.Context, flag *entity.Flag) error
	FindByAuditAndChunk(ctx context.Context, auditId uuid.UUID, chunkId string) (*entity.Flag, error)
	ListByAudit(ctx context.Context, auditId uuid.UUID, filter FlagFilter) ([]*entity.Flag, error)
	CountByType(ctx context.Context, auditId uuid.UUID) (map[string]int, error)
}
