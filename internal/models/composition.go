package models

import (
	"time"

	"gorm.io/gorm"
)

// Composition is one stored generation result: the prompt that asked for it
// and the normalized notation that came back.
type Composition struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RequestID   string `gorm:"uniqueIndex;not null" json:"request_id"`
	Prompt      string `gorm:"type:text;not null" json:"prompt"`
	Title       string `gorm:"not null" json:"title"`
	Model       string `gorm:"index" json:"model"`
	ABCNotation string `gorm:"type:text;not null" json:"abc_notation"`
	TotalTokens int    `json:"total_tokens"`
}
