package models

import (
	"time"
)

// TransferRateLimit tracks transfer attempts per user inside a trailing
// window. One row per user, reused as windows roll over.
type TransferRateLimit struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	WindowStart  time.Time `json:"window_start" db:"window_start"`
	AttemptCount int       `json:"attempt_count" db:"attempt_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
