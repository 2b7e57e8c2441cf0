package mapper

import (
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/model"

	"gorm.io/datatypes"
)

type FlagMapper struct{}

func NewFlagMapper() *FlagMapper {
	return &FlagMapper{}
}

func (m *FlagMapper) ToEntity(f *model.Flag) *entity.Flag {
	citations := make([]entity.Citation, len(f.Citations))
	for i, c := range f.Citations {
		citations[i] = entity.Citation{
			Id:           c.Id,
			FlagId:       c.FlagId,
			CitationType: c.CitationType,
			Reference:    c.Reference,
		}
	}
	updatedAt := f.UpdatedAt
	return &entity.Flag{
		Id:                 f.Id,
		AuditId:            f.AuditId,
		ChunkId:            f.ChunkId,
		FlagType:           f.FlagType,
		SeverityScore:      f.SeverityScore,
		Findings:           f.Findings,
		Gaps:               f.Gaps,
		Recommendations:    f.Recommendations,
		Citations:          citations,
		RefinementAttempts: f.RefinementAttempts,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          &updatedAt,
	}
}

func (m *FlagMapper) ToModel(f *entity.Flag) *model.Flag {
	citations := make([]model.Citation, len(f.Citations))
	for i, c := range f.Citations {
		citations[i] = model.Citation{
			Id:           c.Id,
			FlagId:       c.FlagId,
			CitationType: c.CitationType,
			Reference:    c.Reference,
		}
	}
	return &model.Flag{
		Id:                 f.Id,
		AuditId:            f.AuditId,
		ChunkId:            f.ChunkId,
		FlagType:           f.FlagType,
		SeverityScore:      f.SeverityScore,
		Findings:           f.Findings,
		Gaps:               datatypes.NewJSONSlice(f.Gaps),
		Recommendations:    datatypes.NewJSONSlice(f.Recommendations),
		Citations:          citations,
		RefinementAttempts: f.RefinementAttempts,
		CreatedAt:          f.CreatedAt,
	}
}
