package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/meridianbank/backend/internal/audit"
	"github.com/meridianbank/backend/internal/config"
	"github.com/meridianbank/backend/internal/middleware"
)

// TransferService owns the money-transfer pipeline: authorization, the
// pending transaction audit record, the atomic debit, and terminal status
// stamping.
type TransferService struct {
	db        *sql.DB
	redis     *redis.Client
	cfg       *config.TransferConfig
	limiter   *RateLimitService
	ledger    *LedgerService
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewTransferService(db *sql.DB, redisClient *redis.Client, cfg *config.TransferConfig) *TransferService {
	return &TransferService{
		db:        db,
		redis:     redisClient,
		cfg:       cfg,
		limiter:   NewRateLimitService(db, cfg),
		ledger:    NewLedgerService(db),
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

type TransferRequest struct {
	FromAccountID   string  `json:"fromAccountId" validate:"required"`
	ToAccountNumber string  `json:"toAccountNumber" validate:"required"`
	ToAccountName   string  `json:"toAccountName" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"omitempty,max=200"`
}

type BillPaymentRequest struct {
	FromAccountID string  `json:"fromAccountId" validate:"required"`
	BillCategory  string  `json:"billCategory" validate:"required,max=50"`
	BillerName    string  `json:"billerName" validate:"required,max=100"`
	AccountNumber string  `json:"accountNumber" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
}

type AirtimeRequest struct {
	FromAccountID string  `json:"fromAccountId" validate:"required"`
	PhoneNumber   string  `json:"phoneNumber" validate:"required,min=7,max=20"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
}

// ProcessTransfer handles a money transfer from an owned account
// @Summary Transfer money
// @Description Debit an owned account and record the transfer. The destination is external and not verified.
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body TransferRequest true "Transfer details"
// @Success 200 {object} object{success=bool,transactionId=string,newBalance=number,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transfers [post]
func (ts *TransferService) ProcessTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if !ts.decodeBody(w, r, &req) {
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	ts.executeTransfer(w, r, userID, &req)
}

// PayBill handles a bill payment, which runs through the same transfer
// pipeline with the biller mapped into the destination fields
// @Summary Pay a bill
// @Description Pay a biller from an owned account
// @Tags transfers
// @Accept json
// @Produce json
// @Param payment body BillPaymentRequest true "Bill payment details"
// @Success 200 {object} object{success=bool,transactionId=string,newBalance=number,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bills/pay [post]
func (ts *TransferService) PayBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req BillPaymentRequest
	if !ts.decodeBody(w, r, &req) {
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	category := capitalize(req.BillCategory)
	transfer := TransferRequest{
		FromAccountID:   req.FromAccountID,
		ToAccountNumber: req.AccountNumber,
		ToAccountName:   req.BillerName + " (" + category + ")",
		Amount:          req.Amount,
		Description:     "Bill Payment - " + category,
	}

	ts.executeTransfer(w, r, userID, &transfer)
}

// BuyAirtime handles a mobile top-up, which runs through the same transfer
// pipeline with the phone number mapped into the destination fields
// @Summary Buy airtime
// @Description Top up a mobile phone balance from an owned account
// @Tags transfers
// @Accept json
// @Produce json
// @Param purchase body AirtimeRequest true "Airtime purchase details"
// @Success 200 {object} object{success=bool,transactionId=string,newBalance=number,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /airtime/purchase [post]
func (ts *TransferService) BuyAirtime(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AirtimeRequest
	if !ts.decodeBody(w, r, &req) {
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	transfer := TransferRequest{
		FromAccountID:   req.FromAccountID,
		ToAccountNumber: req.PhoneNumber,
		ToAccountName:   "Airtime - " + req.PhoneNumber,
		Amount:          req.Amount,
		Description:     "Airtime Purchase",
	}

	ts.executeTransfer(w, r, userID, &transfer)
}

// executeTransfer runs authorization and the executor state machine for one
// transfer attempt. The pending transaction row is the durable record of
// intent: it exists even when the debit later fails.
func (ts *TransferService) executeTransfer(w http.ResponseWriter, r *http.Request, userID string, req *TransferRequest) {
	if req.Amount > ts.cfg.MaxAmount {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}

	// Amounts below one cent round to a zero debit; reject them with the
	// other amount bounds.
	amountCents := int64(math.Round(req.Amount * 100))
	if amountCents < 1 {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}

	if len(req.ToAccountNumber) < ts.cfg.MinAccountNumberLen || len(req.ToAccountNumber) > ts.cfg.MaxAccountNumberLen {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return
	}

	allowed, attemptCount, err := ts.limiter.CheckAndRecordAttempt(userID, time.Now())
	if err != nil {
		SendErrorResponse(w, "Rate limit check failed", http.StatusInternalServerError, nil)
		return
	}
	if !allowed {
		log.Printf("[TRANSFER] Rate limit exceeded for user %s, attempt %d", userID, attemptCount)
		ts.audit.LogRateLimited(userID, attemptCount)
		SendErrorResponse(w, "Rate limit exceeded. Please try again later.", http.StatusBadRequest, nil)
		return
	}

	account, err := ts.ledger.GetOwnedAccount(req.FromAccountID, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.Printf("[TRANSFER] Account %s not found for user %s", req.FromAccountID, userID)
			SendErrorResponse(w, "Account not found", http.StatusBadRequest, nil)
			return
		}
		log.Printf("[TRANSFER] Account lookup failed: %v", err)
		SendErrorResponse(w, "Failed to process transfer", http.StatusInternalServerError, nil)
		return
	}

	if account.Balance < amountCents {
		log.Printf("[TRANSFER] Insufficient funds: account %s has %d, requested %d", account.ID, account.Balance, amountCents)
		SendErrorResponse(w, "Insufficient funds", http.StatusBadRequest, nil)
		return
	}

	txID := uuid.New().String()
	ipAddress := clientIP(r)
	userAgent := r.UserAgent()

	_, err = ts.db.Exec(`
		INSERT INTO transactions
		(id, user_id, from_account_id, to_account_number, to_account_name, amount, description, status, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9, NOW())
	`, txID, userID, account.ID, req.ToAccountNumber, req.ToAccountName, amountCents, req.Description, ipAddress, userAgent)
	if err != nil {
		log.Printf("[TRANSFER] Failed to create transaction record: %v", err)
		ts.audit.LogError(txID, account.ID, err)
		SendErrorResponse(w, "Failed to process transfer", http.StatusInternalServerError, nil)
		return
	}

	newBalance, err := ts.ledger.DebitIfSufficient(account.ID, userID, amountCents)
	if err != nil {
		ts.markTransactionFailed(txID)
		ts.audit.LogError(txID, account.ID, err)
		if errors.Is(err, ErrInsufficientFunds) {
			SendErrorResponse(w, "Insufficient funds", http.StatusBadRequest, nil)
			return
		}
		log.Printf("[TRANSFER] Debit failed for transaction %s: %v", txID, err)
		SendErrorResponse(w, "Failed to process transfer", http.StatusBadRequest, nil)
		return
	}

	// The debit is applied; a failure to stamp the terminal status must not
	// undo it or downgrade the reported outcome.
	if err := ts.markTransactionCompleted(txID); err != nil {
		log.Printf("[TRANSFER] Transaction %s debited but not marked completed: %v", txID, err)
	}

	ts.audit.LogTransfer(txID, account.ID, req.ToAccountNumber, amountCents, "COMPLETED")
	ts.queueTransactionAlert(txID, userID, req.ToAccountName, amountCents)

	log.Printf("[TRANSFER] Transfer %s completed for user %s", txID, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"transactionId": txID,
		"newBalance":    float64(newBalance) / 100,
		"message":       "Transfer completed successfully",
	})
}

func (ts *TransferService) markTransactionCompleted(txID string) error {
	result, err := ts.db.Exec(`
		UPDATE transactions SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND status = 'pending'`, txID)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.New("transaction no longer pending")
	}
	return nil
}

func (ts *TransferService) markTransactionFailed(txID string) {
	_, err := ts.db.Exec(`
		UPDATE transactions SET status = 'failed'
		WHERE id = $1 AND status = 'pending'`, txID)
	if err != nil {
		log.Printf("[TRANSFER] Failed to mark transaction %s failed: %v", txID, err)
	}
}

// queueTransactionAlert pushes an alert event for a downstream notifier.
// Best-effort: a missing Redis client or queue error never affects the
// transfer outcome.
func (ts *TransferService) queueTransactionAlert(txID, userID, toAccountName string, amount int64) {
	if ts.redis == nil {
		return
	}

	enabled := true
	err := ts.db.QueryRow(`SELECT transaction_alerts FROM user_settings WHERE user_id = $1`, userID).Scan(&enabled)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("[TRANSFER] Alert settings lookup failed for user %s: %v", userID, err)
		return
	}
	if !enabled {
		return
	}

	event := map[string]interface{}{
		"transaction_id":  txID,
		"user_id":         userID,
		"to_account_name": toAccountName,
		"amount":          amount,
		"queued_at":       time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := ts.redis.RPush(context.Background(), "transaction_alerts", data).Err(); err != nil {
		log.Printf("[TRANSFER] Failed to queue transaction alert for %s: %v", txID, err)
	}
}

// decodeBody applies the request body limits and strict single-object JSON
// decoding. Returns false after writing the error response.
func (ts *TransferService) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, ts.cfg.MaxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
