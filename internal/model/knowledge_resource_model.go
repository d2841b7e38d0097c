package model

import (
	"time"

	"gorm.io/datatypes"
)

type KnowledgeResource struct {
	Name       string         `gorm:"type:varchar(100);primaryKey"` // derived from the source file name
	Title      string         `gorm:"type:varchar(255)"`
	Category   string         `gorm:"type:varchar(100)"`
	Payload    datatypes.JSON `gorm:"not null"`
	SourcePath string         `gorm:"type:varchar(500)"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (KnowledgeResource) TableName() string {
	return "knowledge_resources"
}
