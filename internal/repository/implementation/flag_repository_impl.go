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

type FlagRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FlagMapper
}

func NewFlagRepository(db *gorm.DB) contract.FlagRepository {
	return &FlagRepositoryImpl{
		db:     db,
		mapper: mapper.NewFlagMapper(),
	}
}

func (r *FlagRepositoryImpl) Upsert(ctx context.Context, flag *entity.Flag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Flag
		err := tx.Where("audit_id = ? AND chunk_id = ?", flag.AuditId, flag.ChunkId).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m := r.mapper.ToModel(flag)
		if err == nil {
			// Replace in place: keep the row id, refresh citations.
			m.Id = existing.Id
			m.CreatedAt = existing.CreatedAt
			if err := tx.Where("flag_id = ?", existing.Id).Delete(&model.Citation{}).Error; err != nil {
				return err
			}
			for i := range m.Citations {
				m.Citations[i].FlagId = existing.Id
			}
			if err := tx.Save(m).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		*flag = *r.mapper.ToEntity(m)
		return nil
	})
}

func (r *FlagRepositoryImpl) FindByAuditAndChunk(ctx context.Context, auditId uuid.UUID, chunkId string) (*entity.Flag, error) {
	var m model.Flag
	err := r.db.WithContext(ctx).
		Preload("Citations").
		Where("audit_id = ? AND chunk_id = ?", auditId, chunkId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FlagRepositoryImpl) ListByAudit(ctx context.Context, auditId uuid.UUID, filter contract.FlagFilter) ([]*entity.Flag, error) {
	var models []*model.Flag
	query := r.db.WithContext(ctx).
		Preload("Citations").
		Where("audit_id = ?", auditId)
	if filter.Classification != "" {
		query = query.Where("flag_type = ?", filter.Classification)
	}
	if filter.ReferenceSubstring != "" {
		subQuery := r.db.Table("citations").
			Select("flag_id").
			Where("reference ILIKE ?", "%"+filter.ReferenceSubstring+"%")
		query = query.Where("id IN (?)", subQuery)
	}
	// Flags come back in document order.
	err := query.
		Joins("JOIN chunks ON chunks.chunk_id = flags.chunk_id").
		Order("chunks.ordinal ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.Flag, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *FlagRepositoryImpl) CountByType(ctx context.Context, auditId uuid.UUID) (map[string]int, error) {
	type row struct {
		FlagType string
		Count    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Flag{}).
		Select("flag_type, count(*) as count").
		Where("audit_id = ?", auditId).
		Group("flag_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.FlagType] = r.Count
	}
	return counts, nil
}
