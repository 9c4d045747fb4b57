package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	viper.Set("jwt.secret_key", testSecret)

	handler := Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		w.Write([]byte(userID))
	}))

	t.Run("missing header is rejected with the JSON envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp map[string]interface{}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, "Missing Authorization token", resp["error"])
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with the wrong key is rejected", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "user1"}, "wrong-secret")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without a user_id claim is rejected", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"sub": "user1"}, testSecret)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token reaches the handler with the user id", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "user1"}, testSecret)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user1", w.Body.String())
	})
}

func TestUserIDFromContext(t *testing.T) {
	t.Run("round-trips through WithUserID", func(t *testing.T) {
		ctx := WithUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "user1")
		userID, ok := UserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user1", userID)
	})

	t.Run("absent value reads as not ok", func(t *testing.T) {
		_, ok := UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
		assert.False(t, ok)
	})
}
