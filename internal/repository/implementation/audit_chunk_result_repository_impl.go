package implementation

import (
	"context"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/mapper"
	"compliance-audit-be/internal/model"
	"compliance-audit-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditChunkResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AuditChunkResultMapper
}

func NewAuditChunkResultRepository(db *gorm.DB) contract.AuditChunkResultRepository {
	return &AuditChunkResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewAuditChunkResultMapper(),
	}
}

func (r *AuditChunkResultRepositoryImpl) Create(ctx context.Context, result *entity.AuditChunkResult) error {
	m := r.mapper.ToModel(result)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*result = *r.mapper.ToEntity(m)
	return nil
}

func (r *AuditChunkResultRepositoryImpl) CountByStatus(ctx context.Context, auditId uuid.UUID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditChunkResult{}).
		Where("audit_id = ? AND status = ?", auditId, status).
		Count(&count).Error
	return count, err
}
