package contract

import (
	"context"

	"compliance-audit-be/internal/entity"
)

type ComplianceScoreRepository interface {
	Create(ctx context.Context, score *entity.ComplianceScore) error
}
