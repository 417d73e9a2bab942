package models

import "time"

// TimeEntry is one measured span of work. EndedAt is nil while the timer runs;
// the partial unique index from migration 00001 keeps that to one per user.
type TimeEntry struct {
	ID                 string     `gorm:"primaryKey;size:36"`
	UserID             uint       `gorm:"index;not null"`
	ClientID           string     `gorm:"size:36;index;not null"`
	TaskName           string     `gorm:"size:255;not null"`
	StartedAt          time.Time  `gorm:"index;not null"`
	EndedAt            *time.Time `gorm:"index"`
	Duration           int64      `gorm:"not null;default:0"` // seconds, authoritative once EndedAt is set
	TargetDuration     *int64     // seconds, goal mode
	CommentEnc         string     `gorm:"type:text"` // comment ciphertext (AES+base64)
	IsPaused           bool       `gorm:"not null;default:false"`
	PausedAt           *time.Time
	TotalPauseDuration int64 `gorm:"not null;default:0"` // seconds
	CreatedAt          time.Time
	UpdatedAt          time.Time

	User   User   `gorm:"constraint:OnDelete:CASCADE"`
	Client Client `gorm:"constraint:OnDelete:CASCADE"`
}
