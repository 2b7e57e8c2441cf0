package mapper

import (
	"encoding/json"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/model"

	"gorm.io/datatypes"
)

type AuditChunkResultMapper struct{}

func NewAuditChunkResultMapper() *AuditChunkResultMapper {
	return &AuditChunkResultMapper{}
}

func (m *AuditChunkResultMapper) ToEntity(r *model.AuditChunkResult) *entity.AuditChunkResult {
	var analysis map[string]interface{}
	if len(r.Analysis) > 0 {
		_ = json.Unmarshal(r.Analysis, &analysis)
	}
	return &entity.AuditChunkResult{
		Id:                r.Id,
		AuditId:           r.AuditId,
		ChunkId:           r.ChunkId,
		Ordinal:           r.Ordinal,
		Status:            r.Status,
		Analysis:          analysis,
		ContextTokenCount: r.ContextTokenCount,
		FailureReason:     r.FailureReason,
		CreatedAt:         r.CreatedAt,
	}
}

func (m *AuditChunkResultMapper) ToModel(r *entity.AuditChunkResult) *model.AuditChunkResult {
	var analysis datatypes.JSON
	if r.Analysis != nil {
		if raw, err := json.Marshal(r.Analysis); err == nil {
			analysis = raw
		}
	}
	return &model.AuditChunkResult{
		Id:                r.Id,
		AuditId:           r.AuditId,
		ChunkId:           r.ChunkId,
		Ordinal:           r.Ordinal,
		Status:            r.Status,
		Analysis:          analysis,
		ContextTokenCount: r.ContextTokenCount,
		FailureReason:     r.FailureReason,
		CreatedAt:         r.CreatedAt,
	}
}
