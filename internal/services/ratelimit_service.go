package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/meridianbank/backend/internal/config"
)

// RateLimitService bounds transfer attempts per user over a trailing window.
// The check-and-increment runs as a single upsert so concurrent requests from
// the same user cannot both slip past the boundary count.
type RateLimitService struct {
	db  *sql.DB
	cfg *config.TransferConfig
}

func NewRateLimitService(db *sql.DB, cfg *config.TransferConfig) *RateLimitService {
	return &RateLimitService{db: db, cfg: cfg}
}

// One row per user. A window that started before the cutoff is restarted at
// count 1; otherwise the counter is incremented in place. The increment is
// persisted even for attempts that end up rejected: rejected attempts count
// against the window too.
const rateLimitUpsert = `
	INSERT INTO transfer_rate_limits (id, user_id, window_start, attempt_count, created_at)
	VALUES ($1, $2, $3, 1, $3)
	ON CONFLICT (user_id) DO UPDATE SET
		attempt_count = CASE
			WHEN transfer_rate_limits.window_start >= $4 THEN transfer_rate_limits.attempt_count + 1
			ELSE 1
		END,
		window_start = CASE
			WHEN transfer_rate_limits.window_start >= $4 THEN transfer_rate_limits.window_start
			ELSE $3
		END
	RETURNING attempt_count`

// CheckAndRecordAttempt records one transfer attempt for the user and reports
// whether it is allowed. Storage errors fail closed.
func (rl *RateLimitService) CheckAndRecordAttempt(userID string, now time.Time) (bool, int, error) {
	cutoff := now.Add(-rl.cfg.RateLimitWindow)

	var attemptCount int
	err := rl.db.QueryRow(rateLimitUpsert, uuid.New().String(), userID, now, cutoff).Scan(&attemptCount)
	if err != nil {
		log.Printf("[RATE_LIMIT] Check failed for user %s: %v", userID, err)
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	return attemptCount <= rl.cfg.MaxAttemptsPerWindow, attemptCount, nil
}
