package model

import "time"

// User stores Telegram user metadata. TelegramID doubles as the chat that
// receives reminder notifications.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Tasks      []Task `gorm:"foreignKey:UserID"`
}
