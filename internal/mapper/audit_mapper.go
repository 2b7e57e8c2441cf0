package mapper

import (
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/model"
)

type AuditMapper struct{}

func NewAuditMapper() *AuditMapper {
	return &AuditMapper{}
}

func (m *AuditMapper) ToEntity(a *model.Audit) *entity.Audit {
	updatedAt := a.UpdatedAt
	return &entity.Audit{
		Id:             a.Id,
		DocumentId:     a.DocumentId,
		Status:         a.Status,
		IsDraft:        a.IsDraft,
		ChunkTotal:     a.ChunkTotal,
		ChunkCompleted: a.ChunkCompleted,
		ChunkFailed:    a.ChunkFailed,
		LastChunkId:    a.LastChunkId,
		StartedAt:      a.StartedAt,
		CompletedAt:    a.CompletedAt,
		FailedAt:       a.FailedAt,
		CancelledAt:    a.CancelledAt,
		FailureReason:  a.FailureReason,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      &updatedAt,
	}
}

func (m *AuditMapper) ToModel(a *entity.Audit) *model.Audit {
	out := &model.Audit{
		Id:             a.Id,
		DocumentId:     a.DocumentId,
		Status:         a.Status,
		IsDraft:        a.IsDraft,
		ChunkTotal:     a.ChunkTotal,
		ChunkCompleted: a.ChunkCompleted,
		ChunkFailed:    a.ChunkFailed,
		LastChunkId:    a.LastChunkId,
		StartedAt:      a.StartedAt,
		CompletedAt:    a.CompletedAt,
		FailedAt:       a.FailedAt,
		CancelledAt:    a.CancelledAt,
		FailureReason:  a.FailureReason,
		CreatedAt:      a.CreatedAt,
	}
	if a.UpdatedAt != nil {
		out.UpdatedAt = *a.UpdatedAt
	}
	return out
}
