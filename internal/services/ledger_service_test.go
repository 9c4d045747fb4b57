package services

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func accountRows(balance int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "account_name", "account_number", "account_type",
		"balance", "currency", "iban", "swift_bic", "created_at", "updated_at",
	}).AddRow("acc1", "user1", "Main Checking", "1234567890", "checking",
		balance, "USD", nil, nil, now, now)
}

func TestLedgerService_GetOwnedAccount(t *testing.T) {
	t.Run("returns the account when owned by the caller", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, user_id, account_name").
			WithArgs("acc1", "user1").
			WillReturnRows(accountRows(50000))

		service := NewLedgerService(db)
		account, err := service.GetOwnedAccount("acc1", "user1")

		assert.NoError(t, err)
		assert.Equal(t, "acc1", account.ID)
		assert.Equal(t, int64(50000), account.Balance)
		assert.Equal(t, 500.0, account.BalanceMajor())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another user's account reads as not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, user_id, account_name").
			WithArgs("acc1", "intruder").
			WillReturnError(sql.ErrNoRows)

		service := NewLedgerService(db)
		account, err := service.GetOwnedAccount("acc1", "intruder")

		assert.Nil(t, account)
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_DebitIfSufficient(t *testing.T) {
	t.Run("debits and returns the new balance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(int64(5000), "acc1", "user1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(45000))

		service := NewLedgerService(db)
		newBalance, err := service.DebitIfSufficient("acc1", "user1", 5000)

		assert.NoError(t, err)
		assert.Equal(t, int64(45000), newBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard miss reads as insufficient funds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(int64(15000), "acc1", "user1").
			WillReturnError(sql.ErrNoRows)

		service := NewLedgerService(db)
		_, err = service.DebitIfSufficient("acc1", "user1", 15000)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage error is passed through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(int64(5000), "acc1", "user1").
			WillReturnError(errors.New("connection reset"))

		service := NewLedgerService(db)
		_, err = service.DebitIfSufficient("acc1", "user1", 5000)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_Credit(t *testing.T) {
	t.Run("credits and returns the new balance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(int64(20000), "acc1", "user1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(70000))

		service := NewLedgerService(db)
		newBalance, err := service.Credit("acc1", "user1", 20000)

		assert.NoError(t, err)
		assert.Equal(t, int64(70000), newBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account reads as not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE accounts").
			WithArgs(int64(20000), "missing", "user1").
			WillReturnError(sql.ErrNoRows)

		service := NewLedgerService(db)
		_, err = service.Credit("missing", "user1", 20000)

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
