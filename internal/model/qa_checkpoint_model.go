package model

import (
	"time"

	"gorm.io/datatypes"
)

// QACheckpoint stores the latest pipeline state of a session as JSON
type QACheckpoint struct {
	SessionId string         `gorm:"type:varchar(64);primaryKey"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (QACheckpoint) TableName() string {
	return "qa_checkpoints"
}
