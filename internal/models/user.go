package models

import (
	"time"
)

type User struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Account   string `gorm:"size:120;uniqueIndex;not null"`
	Name      string `gorm:"size:120"`
	AvatarURL string `gorm:"size:512"`
	Role      string `gorm:"size:32;not null;default:user"`
}
