package models

import (
	"time"

	"gorm.io/gorm"
)

type App struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Name        string      `gorm:"size:255;not null"`
	InitPrompt  string      `gorm:"type:text;not null"`
	CodeGenType CodeGenType `gorm:"size:64;not null;index"`
	UserID      uint        `gorm:"index;not null"`
	Priority    int         `gorm:"not null;default:0"`
}
