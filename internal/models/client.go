package models

import "time"

// Client is a customer time is tracked against.
type Client struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:128;not null"`
	Color     string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
