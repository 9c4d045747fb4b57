package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meridianbank/backend/internal/middleware"
	"github.com/meridianbank/backend/internal/models"
)

// TransactionService serves the read side of the transactions table. All
// reads are scoped to the authenticated user.
type TransactionService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

const defaultPageSize = 10

// ListTransactions retrieves the caller's transactions with optional status
// filter and pagination
// @Summary List transactions
// @Description Get a paginated list of the caller's transactions
// @Tags transactions
// @Produce json
// @Param status query string false "Filter by status (pending, completed, failed)"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} object{transactions=[]models.Transaction,total=int,page=int,limit=int}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != models.TransactionPending &&
		status != models.TransactionCompleted && status != models.TransactionFailed {
		SendErrorResponse(w, "Invalid status filter", http.StatusBadRequest, nil)
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	limit := defaultPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	var total int
	var err error
	if status != "" {
		err = ts.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND status = $2`,
			userID, status).Scan(&total)
	} else {
		err = ts.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&total)
	}
	if err != nil {
		log.Printf("[TRANSACTION] Failed to count transactions for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	offset := (page - 1) * limit
	var rows *sql.Rows
	if status != "" {
		rows, err = ts.db.Query(`
			SELECT id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, completed_at, created_at
			FROM transactions
			WHERE user_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`, userID, status, limit, offset)
	} else {
		rows, err = ts.db.Query(`
			SELECT id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, completed_at, created_at
			FROM transactions
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`, userID, limit, offset)
	}
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch transactions for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to scan transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// GetTransaction retrieves one of the caller's transactions by id
// @Summary Get transaction by ID
// @Description Retrieve a single transaction owned by the caller
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (ts *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txID := chi.URLParam(r, "txId")

	row := ts.db.QueryRow(`
		SELECT id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, completed_at, created_at
		FROM transactions
		WHERE id = $1 AND user_id = $2`, txID, userID)

	tx, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", txID, err)
		SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// GetRecentTransactions retrieves the caller's most recent transactions
// @Summary Get recent transactions
// @Description Get the caller's most recent transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "Number of transactions to return (default 10, max 100)"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/recent [get]
func (ts *TransactionService) GetRecentTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Limit int `validate:"omitempty,min=1,max=100"`
	}
	req.Limit = defaultPageSize

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = l
		}
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	rows, err := ts.db.Query(`
		SELECT id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, completed_at, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, req.Limit)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch recent transactions for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch recent transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to scan transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch recent transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var description, ipAddress, userAgent sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.FromAccountID, &tx.ToAccountNumber, &tx.ToAccountName,
		&tx.Amount, &description, &tx.Status, &ipAddress, &userAgent, &completedAt, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Description = description.String
	tx.IPAddress = ipAddress.String
	tx.UserAgent = userAgent.String
	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}
	return &tx, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}
