package contract

import (
	"context"

	"compliance-audit-be/internal/entity"

	"github.com/google/uuid"
)

type AuditRepository interface {
	Create(ctx context.Context, audit *entity.Audit) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Audit, error)
	Update(ctx context.Context, audit *entity.Audit) error
	// SaveProgress writes only the checkpoint columns (counters and last
	// chunk id). The stored status is left untouched, so a concurrent
	// cancellation request is never overwritten by a checkpoint.
	SaveProgress(ctx context.Context, audit *entity.Audit) error
	// UpdateStatus performs a guarded transition: the status is only written
	// when the current stored status matches one of the expected values.
	// Returns true when the transition was applied.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, expected ...string) (bool, error)
}
