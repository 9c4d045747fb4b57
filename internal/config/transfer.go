package config

import (
	"os"
	"strconv"
	"time"
)

type TransferConfig struct {
	RateLimitWindow      time.Duration
	MaxAttemptsPerWindow int
	MaxAmount            float64 // in major units
	MinAccountNumberLen  int
	MaxAccountNumberLen  int
	MaxRequestBodyBytes  int64
}

func LoadTransferConfig() *TransferConfig {
	return &TransferConfig{
		RateLimitWindow:      getEnvAsDuration("TRANSFER_RATE_LIMIT_WINDOW", 1*time.Hour),
		MaxAttemptsPerWindow: getEnvAsInt("TRANSFER_MAX_ATTEMPTS", 10),
		MaxAmount:            getEnvAsFloat("TRANSFER_MAX_AMOUNT", 1_000_000),
		MinAccountNumberLen:  getEnvAsInt("TRANSFER_MIN_ACCOUNT_NUMBER_LEN", 5),
		MaxAccountNumberLen:  getEnvAsInt("TRANSFER_MAX_ACCOUNT_NUMBER_LEN", 20),
		MaxRequestBodyBytes:  int64(getEnvAsInt("TRANSFER_MAX_BODY_BYTES", 1_048_576)),
	}
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
