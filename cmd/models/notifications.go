package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Device is a registered expo push token for a user.
type Device struct {
	gorm.Model
	Token      string `gorm:"not null;uniqueIndex:idx_token_user" json:"token"`
	UserID     uint   `gorm:"not null;index;uniqueIndex:idx_token_user" json:"user_id"`
	DeviceType string `gorm:"type:varchar(50)" json:"device_type,omitempty"`
	DeviceName string `gorm:"type:varchar(100)" json:"device_name,omitempty"`
}

// NotificationHistory records one push attempt to a user.
type NotificationHistory struct {
	gorm.Model
	UserID uint           `gorm:"index" json:"user_id"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Tokens pq.StringArray `gorm:"type:text[]" json:"tokens,omitempty"`
	Status string         `gorm:"type:varchar(20)" json:"status"` // sent, failed
	SentAt time.Time      `json:"sent_at"`
}
