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

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) FindByChunkId(ctx context.Context, chunkId string) (*entity.Chunk, error) {
	var m model.Chunk
	if err := r.db.WithContext(ctx).Where("chunk_id = ?", chunkId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ChunkRepositoryImpl) FindWindow(ctx context.Context, documentId uuid.UUID, ordinal, window int) ([]*entity.Chunk, error) {
	if window < 0 {
		window = 0
	}
	var models []*model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Where("ordinal BETWEEN ? AND ?", ordinal-window, ordinal+window).
		Order("ordinal ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *ChunkRepositoryImpl) FindPending(ctx context.Context, documentId, auditId uuid.UUID, limit int) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.db.WithContext(ctx).
		Joins("LEFT JOIN audit_chunk_results r ON r.audit_id = ? AND r.chunk_id = chunks.chunk_id", auditId).
		Where("chunks.document_id = ?", documentId).
		Where("r.id IS NULL").
		Order("chunks.ordinal ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *ChunkRepositoryImpl) CountPending(ctx context.Context, documentId, auditId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Joins("LEFT JOIN audit_chunk_results r ON r.audit_id = ? AND r.chunk_id = chunks.chunk_id", auditId).
		Where("chunks.document_id = ?", documentId).
		Where("r.id IS NULL").
		Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("document_id = ?", documentId).
		Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) toEntities(models []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities
}
