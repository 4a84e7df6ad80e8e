package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func TestGenerateAndValidate(t *testing.T) {
	m, err := NewJWTManager(secret, time.Hour)
	require.NoError(t, err)

	token, err := m.Generate("owner-1")
	require.NoError(t, err)

	owner, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestValidateRejects(t *testing.T) {
	m, err := NewJWTManager(secret, time.Hour)
	require.NoError(t, err)
	other, err := NewJWTManager("another-secret-value-xx", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Generate("owner-1")
	require.NoError(t, err)
	_, err = m.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := m.Generate("owner-1")
	require.NoError(t, err)
	m.now = time.Now
	_, err = m.Validate(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(" ", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	m, err := NewJWTManager(secret, time.Hour)
	require.NoError(t, err)
	token, err := m.Generate("owner-7")
	require.NoError(t, err)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				var body ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "error", body.Status)
			}
		})
	}
	assert.Equal(t, "owner-7", seen)
}
