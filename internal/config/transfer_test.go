package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTransferConfig(t *testing.T) {
	t.Run("uses defaults when the environment is empty", func(t *testing.T) {
		cfg := LoadTransferConfig()

		assert.Equal(t, time.Hour, cfg.RateLimitWindow)
		assert.Equal(t, 10, cfg.MaxAttemptsPerWindow)
		assert.Equal(t, float64(1_000_000), cfg.MaxAmount)
		assert.Equal(t, 5, cfg.MinAccountNumberLen)
		assert.Equal(t, 20, cfg.MaxAccountNumberLen)
		assert.Equal(t, int64(1_048_576), cfg.MaxRequestBodyBytes)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("TRANSFER_RATE_LIMIT_WINDOW", "30m")
		t.Setenv("TRANSFER_MAX_ATTEMPTS", "5")
		t.Setenv("TRANSFER_MAX_AMOUNT", "50000")

		cfg := LoadTransferConfig()

		assert.Equal(t, 30*time.Minute, cfg.RateLimitWindow)
		assert.Equal(t, 5, cfg.MaxAttemptsPerWindow)
		assert.Equal(t, float64(50000), cfg.MaxAmount)
	})

	t.Run("ignores malformed overrides", func(t *testing.T) {
		t.Setenv("TRANSFER_MAX_ATTEMPTS", "not-a-number")

		cfg := LoadTransferConfig()

		assert.Equal(t, 10, cfg.MaxAttemptsPerWindow)
	})
}
