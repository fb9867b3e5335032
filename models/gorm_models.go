// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGame 比赛快照模型
type GormGame struct {
	gorm.Model
	GameID   string                 `gorm:"uniqueIndex;not null"`
	Variant  string                 `gorm:"not null"`
	State    string                 `gorm:"not null"`
	Snapshot map[string]interface{} `gorm:"type:jsonb"`
}

// GormGameRecord 终局归档模型
type GormGameRecord struct {
	gorm.Model
	GameID    string                 `gorm:"index;not null"`
	Variant   string                 `gorm:"not null"`
	WinnerID  string                 `gorm:"index"`
	TurnCount int                    `gorm:"default:0"`
	Players   map[string]interface{} `gorm:"type:jsonb;not null"`
	Snapshot  map[string]interface{} `gorm:"type:jsonb"`
}
