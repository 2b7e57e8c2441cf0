package model

import (
	"time"

	"github.com/google/uuid"
)

type ComplianceScore struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditId      uuid.UUID `gorm:"type:uuid;not null;index"`
	OverallScore float64   `gorm:"not null"`
	RedCount     int       `gorm:"not null;default:0"`
	YellowCount  int       `gorm:"not null;default:0"`
	GreenCount   int       `gorm:"not null;default:0"`
	TotalFlags   int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (ComplianceScore) TableName() string {
	return "compliance_scores"
}
