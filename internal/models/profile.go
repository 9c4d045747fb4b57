package models

import (
	"time"
)

// Profile holds customer identity details keyed by the auth user id.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	FullName    string    `json:"full_name" db:"full_name"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Address     string    `json:"address,omitempty" db:"address"`
	City        string    `json:"city,omitempty" db:"city"`
	Country     string    `json:"country,omitempty" db:"country"`
	DateOfBirth string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	IDNumber    string    `json:"id_number,omitempty" db:"id_number"`
	IDType      string    `json:"id_type,omitempty" db:"id_type"`
	IDVerified  bool      `json:"id_verified" db:"id_verified"`
	AvatarURL   string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
