package contract

import (
	"context"

	"compliance-audit-be/internal/entity"

	"github.com/google/uuid"
)

type AuditChunkResultRepository interface {
	Create(ctx context.Context, result *entity.AuditChunkResult) error
	CountByStatus(ctx context.Context, auditId uuid.UUID, status string) (int64, error)
}
