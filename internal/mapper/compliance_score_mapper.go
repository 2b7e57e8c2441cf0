package mapper

import (
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/model"
)

type ComplianceScoreMapper struct{}

func NewComplianceScoreMapper() *ComplianceScoreMapper {
	return &ComplianceScoreMapper{}
}

func (m *ComplianceScoreMapper) ToEntity(s *model.ComplianceScore) *entity.ComplianceScore {
	return &entity.ComplianceScore{
		Id:           s.Id,
		AuditId:      s.AuditId,
		OverallScore: s.OverallScore,
		RedCount:     s.RedCount,
		YellowCount:  s.YellowCount,
		GreenCount:   s.GreenCount,
		TotalFlags:   s.TotalFlags,
		CreatedAt:    s.CreatedAt,
	}
}

func (m *ComplianceScoreMapper) ToModel(s *entity.ComplianceScore) *model.ComplianceScore {
	return &model.ComplianceScore{
		Id:           s.Id,
		AuditId:      s.AuditId,
		OverallScore: s.OverallScore,
		RedCount:     s.RedCount,
		YellowCount:  s.YellowCount,
		GreenCount:   s.GreenCount,
		TotalFlags:   s.TotalFlags,
		CreatedAt:    s.CreatedAt,
	}
}
