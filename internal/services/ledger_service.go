package services

import (
	"database/sql"
	"errors"

	"github.com/meridianbank/backend/internal/models"
)

var (
	// ErrAccountNotFound covers both a missing account and an account owned
	// by someone else; callers cannot distinguish the two.
	ErrAccountNotFound = errors.New("account not found")

	ErrInsufficientFunds = errors.New("insufficient funds")
)

// LedgerService is the sole writer of account balances. Debits and credits
// are single conditional statements so a stale read can never overwrite a
// concurrent update.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// GetOwnedAccount loads an account filtered by both its id and the caller's
// user id. Ownership is folded into the lookup.
func (s *LedgerService) GetOwnedAccount(accountID, userID string) (*models.Account, error) {
	var account models.Account
	var iban, swiftBIC sql.NullString
	err := s.db.QueryRow(`
		SELECT id, user_id, account_name, account_number, account_type, balance, currency, iban, swift_bic, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND user_id = $2`, accountID, userID).Scan(
		&account.ID, &account.UserID, &account.AccountName, &account.AccountNumber,
		&account.AccountType, &account.Balance, &account.Currency, &iban, &swiftBIC,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	account.IBAN = iban.String
	account.SwiftBIC = swiftBIC.String
	return &account, nil
}

// DebitIfSufficient atomically subtracts amount from the account balance,
// guarded by both ownership and sufficiency. Returns the new balance, or
// ErrInsufficientFunds when the guard did not match (the account vanished or
// the balance dropped below amount since the authorization read).
func (s *LedgerService) DebitIfSufficient(accountID, userID string, amount int64) (int64, error) {
	var newBalance int64
	err := s.db.QueryRow(`
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND balance >= $1
		RETURNING balance`, amount, accountID, userID).Scan(&newBalance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	return newBalance, nil
}

// Credit atomically adds amount to an owned account and returns the new
// balance.
func (s *LedgerService) Credit(accountID, userID string, amount int64) (int64, error) {
	var newBalance int64
	err := s.db.QueryRow(`
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING balance`, amount, accountID, userID).Scan(&newBalance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return newBalance, nil
}
