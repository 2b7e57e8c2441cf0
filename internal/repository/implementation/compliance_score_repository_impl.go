package implementation

import (
	"context"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/mapper"
	"compliance-audit-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ComplianceScoreRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ComplianceScoreMapper
}

func NewComplianceScoreRepository(db *gorm.DB) contract.ComplianceScoreRepository {
	return &ComplianceScoreRepositoryImpl{
		db:     db,
		mapper: mapper.NewComplianceScoreMapper(),
	}
}

func (r *ComplianceScoreRepositoryImpl) Create(ctx context.Context, score *entity.ComplianceScore) error {
	m := r.mapper.ToModel(score)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*score = *r.mapper.ToEntity(m)
	return nil
}
