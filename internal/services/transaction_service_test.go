package services

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/meridianbank/backend/internal/middleware"
	"github.com/meridianbank/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func transactionRows(ids ...string) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "from_account_id", "to_account_number", "to_account_name",
		"amount", "description", "status", "ip_address", "user_agent", "completed_at", "created_at",
	})
	for _, id := range ids {
		rows.AddRow(id, "user1", "acc1", "1234567890", "Jane Doe",
			5000, "Rent", models.TransactionCompleted, "10.0.0.1", "test-agent", now, now)
	}
	return rows
}

func authedGet(t *testing.T, target, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func TestTransactionService_ListTransactions(t *testing.T) {
	t.Run("returns a page with its total count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("user1", 10, 0).
			WillReturnRows(transactionRows("tx1", "tx2"))

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.ListTransactions(w, authedGet(t, "/api/v1/transactions", "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, float64(25), resp["total"])
		assert.Equal(t, float64(1), resp["page"])
		assert.Equal(t, float64(10), resp["limit"])
		assert.Len(t, resp["transactions"], 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies the status filter to both queries", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("user1", models.TransactionFailed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("user1", models.TransactionFailed, 10, 0).
			WillReturnRows(transactionRows("tx1"))

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.ListTransactions(w, authedGet(t, "/api/v1/transactions?status=failed", "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.ListTransactions(w, authedGet(t, "/api/v1/transactions?status=bogus", "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid status filter", resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("honours page and limit parameters", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100))
		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("user1", 20, 40).
			WillReturnRows(transactionRows())

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.ListTransactions(w, authedGet(t, "/api/v1/transactions?page=3&limit=20", "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires an authenticated user", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.ListTransactions(w, authedGet(t, "/api/v1/transactions", ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionService_GetTransaction(t *testing.T) {
	newRouter := func(service *TransactionService) *chi.Mux {
		r := chi.NewRouter()
		r.Get("/transactions/{txId}", service.GetTransaction)
		return r
	}

	t.Run("returns the owned transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("tx1", "user1").
			WillReturnRows(transactionRows("tx1"))

		w := httptest.NewRecorder()
		newRouter(NewTransactionService(db)).ServeHTTP(w, authedGet(t, "/transactions/tx1", "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var tx models.Transaction
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&tx))
		assert.Equal(t, "tx1", tx.ID)
		assert.Equal(t, int64(5000), tx.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another user's transaction reads as not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("tx1", "intruder").
			WillReturnError(sql.ErrNoRows)

		w := httptest.NewRecorder()
		newRouter(NewTransactionService(db)).ServeHTTP(w, authedGet(t, "/transactions/tx1", "intruder"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionService_GetRecentTransactions(t *testing.T) {
	t.Run("returns the most recent transactions", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, user_id, from_account_id").
			WithArgs("user1", 5).
			WillReturnRows(transactionRows("tx1", "tx2", "tx3"))

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.GetRecentTransactions(w, authedGet(t, "/api/v1/transactions/recent?limit=5", "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var transactions []models.Transaction
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&transactions))
		assert.Len(t, transactions, 3)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a limit over the cap", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewTransactionService(db)
		w := httptest.NewRecorder()
		service.GetRecentTransactions(w, authedGet(t, "/api/v1/transactions/recent?limit=500", "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
