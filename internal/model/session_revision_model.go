package model

import (
	"time"
)

type SessionRevision struct {
	Id            int64     `gorm:"primaryKey"` // archive id carried over; idempotency key across re-runs
	SessionId     string    `gorm:"type:varchar(64);not null;index:idx_session_requirement,priority:1"`
	Sequence      int       `gorm:"not null;default:0"` // 1-based, ascending per session
	RequirementId string    `gorm:"type:varchar(64);index:idx_session_requirement,priority:2"`
	Filename      string    `gorm:"type:varchar(255)"`
	FilePath      string    `gorm:"type:varchar(500)"`
	MimeType      string    `gorm:"type:varchar(100)"`
	Note          string    `gorm:"type:varchar(500)"`
	UploadedAt    time.Time `gorm:"not null;autoUpdateTime:false"`

	Session *SavedSession `gorm:"foreignKey:SessionId;references:SessionId;constraint:OnDelete:CASCADE"`
}

func (SessionRevision) TableName() string {
	return "session_revisions"
}
