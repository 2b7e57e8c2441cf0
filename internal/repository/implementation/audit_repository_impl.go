package implementation

import (
	"context"
	"errors"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/mapper"
	"compliance-audit-be/internal/model"
	"compliance-audit-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AuditMapper
}

func NewAuditRepository(db *gorm.DB) contract.AuditRepository {
	return &AuditRepositoryImpl{
		db:     db,
		mapper: mapper.NewAuditMapper(),
	}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, audit *entity.Audit) error {
	m := r.mapper.ToModel(audit)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.ToEntity(m)
	return nil
}

func (r *AuditRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Audit, error) {
	var m model.Audit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AuditRepositoryImpl) Update(ctx context.Context, audit *entity.Audit) error {
	m := r.mapper.ToModel(audit)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.ToEntity(m)
	return nil
}

func (r *AuditRepositoryImpl) SaveProgress(ctx context.Context, audit *entity.Audit) error {
	return r.db.WithContext(ctx).Model(&model.Audit{}).
		Where("id = ?", audit.Id).
		Updates(map[string]interface{}{
			"chunk_completed": audit.ChunkCompleted,
			"chunk_failed":    audit.ChunkFailed,
			"last_chunk_id":   audit.LastChunkId,
		}).Error
}

func (r *AuditRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string, expected ...string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Audit{}).Where("id = ?", id)
	if len(expected) > 0 {
		query = query.Where("status IN ?", expected)
	}
	result := query.Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
