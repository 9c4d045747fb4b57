package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meridianbank/backend/internal/audit"
	"github.com/meridianbank/backend/internal/config"
	"github.com/meridianbank/backend/internal/middleware"
	"github.com/meridianbank/backend/internal/models"
)

type AccountService struct {
	db        *sql.DB
	cfg       *config.TransferConfig
	ledger    *LedgerService
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewAccountService(db *sql.DB, cfg *config.TransferConfig) *AccountService {
	return &AccountService{
		db:        db,
		cfg:       cfg,
		ledger:    NewLedgerService(db),
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

type DepositRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"omitempty,max=100"`
}

// ListAccounts returns the caller's accounts
// @Summary List accounts
// @Description Get all accounts owned by the authenticated user
// @Tags accounts
// @Produce json
// @Success 200 {object} object{accounts=[]models.Account,count=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [get]
func (as *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := as.db.Query(`
		SELECT id, user_id, account_name, account_number, account_type, balance, currency, iban, swift_bic, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to list accounts for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var account models.Account
		var iban, swiftBIC sql.NullString
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.AccountName, &account.AccountNumber,
			&account.AccountType, &account.Balance, &account.Currency, &iban, &swiftBIC,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			log.Printf("[ACCOUNT] Failed to scan account row: %v", err)
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		account.IBAN = iban.String
		account.SwiftBIC = swiftBIC.String
		accounts = append(accounts, account)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// BalanceEnquiry returns the balance of one owned account
// @Summary Get account balance
// @Description Retrieve the balance of an account owned by the caller
// @Tags accounts
// @Produce json
// @Param accountId query string true "Account ID"
// @Success 200 {object} object{accountId=string,availableBalance=number,currency=string,status=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /accounts/balance-enquiry [get]
func (as *AccountService) BalanceEnquiry(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		SendErrorResponse(w, "accountId is required", http.StatusBadRequest, nil)
		return
	}

	account, err := as.ledger.GetOwnedAccount(accountID, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			SendErrorResponse(w, "Account not found", http.StatusBadRequest, nil)
			return
		}
		log.Printf("[ACCOUNT] Balance enquiry failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accountId":        account.ID,
		"availableBalance": account.BalanceMajor(),
		"currency":         account.Currency,
		"status":           "SUCCESS",
	})
}

// Deposit credits an owned account
// @Summary Deposit funds
// @Description Add funds to an account owned by the caller
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountId path string true "Account ID"
// @Param deposit body DepositRequest true "Deposit details"
// @Success 200 {object} object{success=bool,newBalance=number,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts/{accountId}/deposit [post]
func (as *AccountService) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	var req DepositRequest
	r.Body = http.MaxBytesReader(w, r.Body, as.cfg.MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}
	if req.Amount > as.cfg.MaxAmount {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}

	// Sub-cent amounts round to a zero credit.
	amountCents := int64(math.Round(req.Amount * 100))
	if amountCents < 1 {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}

	account, err := as.ledger.GetOwnedAccount(accountID, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			SendErrorResponse(w, "Account not found", http.StatusBadRequest, nil)
			return
		}
		log.Printf("[DEPOSIT] Account lookup failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to process deposit", http.StatusInternalServerError, nil)
		return
	}

	newBalance, err := as.ledger.Credit(account.ID, userID, amountCents)
	if err != nil {
		log.Printf("[DEPOSIT] Credit failed for account %s: %v", account.ID, err)
		SendErrorResponse(w, "Failed to process deposit", http.StatusInternalServerError, nil)
		return
	}

	description := "Deposit"
	if req.Reference != "" {
		description = "Deposit - " + req.Reference
	}

	// The deposit is already applied; the audit row is best-effort, same as
	// the transfer pipeline's terminal stamp.
	_, err = as.db.Exec(`
		INSERT INTO transactions
		(id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', $8, $9, NOW(), NOW())
	`, uuid.New().String(), userID, account.ID, account.AccountNumber, account.AccountName,
		amountCents, description, clientIP(r), r.UserAgent())
	if err != nil {
		log.Printf("[DEPOSIT] Failed to record deposit transaction for account %s: %v", account.ID, err)
	}

	as.audit.LogDeposit(account.ID, userID, amountCents)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"newBalance": float64(newBalance) / 100,
		"message":    "Deposit completed successfully",
	})
}
