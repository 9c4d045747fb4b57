package models

import (
	"time"
)

// Transaction statuses. Completed and failed are terminal and never
// re-transitioned.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// Transaction is the immutable audit record of a transfer attempt. The
// destination is free-form; there is no interbank network behind it.
type Transaction struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	FromAccountID   string     `json:"from_account_id" db:"from_account_id"`
	ToAccountNumber string     `json:"to_account_number" db:"to_account_number"`
	ToAccountName   string     `json:"to_account_name" db:"to_account_name"`
	Amount          int64      `json:"amount" db:"amount"` // in cents
	Description     string     `json:"description,omitempty" db:"description"`
	Status          string     `json:"status" db:"status"`
	IPAddress       string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent       string     `json:"user_agent,omitempty" db:"user_agent"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// AmountMajor returns the amount in major currency units (dollars).
func (t *Transaction) AmountMajor() float64 {
	return float64(t.Amount) / 100
}
