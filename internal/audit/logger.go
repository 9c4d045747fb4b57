package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AccountID     string    `json:"account_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// Logger emits structured audit events for money movement. Events go to the
// server log; the transactions table remains the durable audit trail.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogTransfer(transactionID, fromAccountID, toAccountNumber string, amount int64, status string) {
	a.log(Event{
		Timestamp:     time.Now(),
		EventType:     "TRANSFER",
		TransactionID: transactionID,
		AccountID:     fromAccountID,
		Amount:        amount,
		Status:        status,
		Details: map[string]string{
			"to_account_number": toAccountNumber,
		},
	})
}

func (a *Logger) LogDeposit(accountID, userID string, amount int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "DEPOSIT",
		AccountID: accountID,
		UserID:    userID,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogRateLimited(userID string, attemptCount int) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "RATE_LIMIT",
		UserID:    userID,
		Status:    "REJECTED",
		Details:   map[string]int{"attempt_count": attemptCount},
	})
}

func (a *Logger) LogError(transactionID, accountID string, err error) {
	a.log(Event{
		Timestamp:     time.Now(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		AccountID:     accountID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
