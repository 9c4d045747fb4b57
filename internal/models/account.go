package models

import (
	"time"
)

// Account represents a customer bank account. Balance is held in cents
// and only mutated through the ledger service.
type Account struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	AccountName   string    `json:"account_name" db:"account_name"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	AccountType   string    `json:"account_type" db:"account_type"`
	Balance       int64     `json:"balance" db:"balance"` // in cents
	Currency      string    `json:"currency" db:"currency"`
	IBAN          string    `json:"iban,omitempty" db:"iban"`
	SwiftBIC      string    `json:"swift_bic,omitempty" db:"swift_bic"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BalanceMajor returns the balance in major currency units (dollars).
func (a *Account) BalanceMajor() float64 {
	return float64(a.Balance) / 100
}
