package models

import (
	"time"
)

// UserSettings stores per-user notification and display preferences.
type UserSettings struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	EmailNotifications bool      `json:"email_notifications" db:"email_notifications"`
	PushNotifications  bool      `json:"push_notifications" db:"push_notifications"`
	TransactionAlerts  bool      `json:"transaction_alerts" db:"transaction_alerts"`
	MarketingEmails    bool      `json:"marketing_emails" db:"marketing_emails"`
	Theme              string    `json:"theme" db:"theme"`
	Language           string    `json:"language" db:"language"`
	Currency           string    `json:"currency" db:"currency"`
	ProfileVisibility  string    `json:"profile_visibility" db:"profile_visibility"`
	DataSharing        bool      `json:"data_sharing" db:"data_sharing"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
