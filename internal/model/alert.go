package model

import (
	"time"

	"gorm.io/gorm"
)

// Alert отправленное экстренное оповещение в базе данных
type Alert struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID      string  `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	StreamID     string  `gorm:"type:varchar(255);not null;index" json:"stream_id"`
	FrameSeq     int64   `gorm:"not null" json:"frame_seq"`
	Message      string  `gorm:"type:text;not null" json:"message"`
	Score        int     `gorm:"not null" json:"score"`
	Level        string  `gorm:"type:varchar(16);not null" json:"level"`
	Confidence   float64 `gorm:"not null;default:0" json:"confidence"`
	BoxX1        int     `gorm:"not null" json:"box_x1"`
	BoxY1        int     `gorm:"not null" json:"box_y1"`
	BoxX2        int     `gorm:"not null" json:"box_x2"`
	BoxY2        int     `gorm:"not null" json:"box_y2"`
	EvidencePath string  `gorm:"type:varchar(500)" json:"evidence_path"`
	Delivered    bool    `gorm:"not null;default:false" json:"delivered"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName указывает имя таблицы для Alert
func (Alert) TableName() string {
	return "alerts"
}
