package model

import (
	"time"

	"gorm.io/datatypes"
)

type SavedSession struct {
	SessionId   string         `gorm:"type:varchar(64);primaryKey"`
	ProjectName string         `gorm:"type:varchar(255)"`
	Summary     string         `gorm:"type:text"`
	Data        datatypes.JSON `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime:false"` // carried over from the archive, never auto-touched
}

func (SavedSession) TableName() string {
	return "saved_sessions"
}
