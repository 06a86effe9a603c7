package models

import "time"

// ChatHistory is one turn of an app's conversation. Rows are append-only;
// listing is cursor-paginated by CreatedAt descending.
type ChatHistory struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index:idx_chat_app_created"`

	AppID       uint        `gorm:"index:idx_chat_app_created;not null"`
	UserID      uint        `gorm:"index;not null"`
	Message     string      `gorm:"type:text;not null"`
	MessageType MessageType `gorm:"size:32;not null"`
}
