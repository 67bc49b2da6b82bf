package models

import "time"

// NotificationEvent is an ephemeral release event computed by the
// reconciliation engine. It is never persisted as mutable state; the
// durable trace is the NotificationRecord appended to history.
type NotificationEvent struct {
	TitleID int64            `json:"title_id"`
	Kind    Kind             `json:"kind"`
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`

	// new_episode payload
	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`

	// new_theatrical_release payload
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NotificationRecord is one entry in the per-user notification history
type NotificationRecord struct {
	ID      string           `gorm:"primaryKey;size:36" json:"id"`
	UserID  string           `gorm:"size:64;index" json:"user_id"`
	TitleID int64            `json:"title_id"`
	Kind    Kind             `gorm:"size:16" json:"kind"`
	Type    NotificationType `gorm:"size:32" json:"type"`

	Title string `json:"title"`
	Body  string `json:"body"`

	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`

	Read      bool      `gorm:"index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for gorm
func (NotificationRecord) TableName() string {
	return "notification_history"
}
