package model

import (
	"time"

	"gorm.io/datatypes"
)

// GeneratedReport is a finalized opinion document. The live application
// writes these; migration only ensures the table exists.
type GeneratedReport struct {
	Id             int64          `gorm:"primaryKey;autoIncrement"`
	SessionId      string         `gorm:"type:varchar(64);not null;index:idx_reports_session"`
	ProjectName    string         `gorm:"type:varchar(255)"`
	Summary        string         `gorm:"type:text"`
	Metadata       datatypes.JSON
	KeyData        datatypes.JSON
	ExcludedIds    datatypes.JSON
	AnalysisScope  string         `gorm:"type:varchar(32)"`
	TotalAnalyzed  int
	TotalAvailable int
	DocxPath       string    `gorm:"type:varchar(500)"`
	XlsxPath       string    `gorm:"type:varchar(500)"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_reports_created_at"`

	Session *SavedSession `gorm:"foreignKey:SessionId;references:SessionId;constraint:OnDelete:CASCADE"`
}

func (GeneratedReport) TableName() string {
	return "generated_reports"
}
