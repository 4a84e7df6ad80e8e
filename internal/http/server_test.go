package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/auth"
	"budget/internal/budget"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.June, 12, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	store *memory.Store
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	// each reading advances a millisecond so payments get distinct keys
	var ticks atomic.Int64
	clock := func() time.Time { return fixedNow.Add(time.Duration(ticks.Add(1)) * time.Millisecond) }
	jwtManager, err := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	token, err := jwtManager.Generate("owner-1")
	require.NoError(t, err)

	srv := NewServer(Options{
		Addr:               ":0",
		Budget:             services.NewBudgetService(store, services.WithClock(clock)),
		Rollover:           services.NewRolloverDetector(store, clock, nil),
		Auth:               jwtManager,
		Ready:              store.Ping,
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return &testEnv{srv: srv, store: store, token: token}
}

type testResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Warning string          `json:"warning"`
	Message string          `json:"message"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)

	var resp testResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overview", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestIncomeAndOverview(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/income", `{"name":"Salary","amount":"3000.00","date":"2024-06-01","frequency":"recurring"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ok", resp.Status)

	rec, resp = env.do(t, http.MethodPost, "/api/expenses", `{"name":"Lunch","amount":12.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var expense struct {
		Date string `json:"date"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &expense))
	assert.Equal(t, "2024-06-12", expense.Date)
	assert.Equal(t, "standard", expense.Kind)

	rec, resp = env.do(t, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ov struct {
		MonthlyIncome   string `json:"monthly_income"`
		MonthlyExpenses string `json:"monthly_expenses"`
		Summary         struct {
			Status string `json:"status"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ov))
	assert.Equal(t, "3000.00", ov.MonthlyIncome)
	assert.Equal(t, "12.50", ov.MonthlyExpenses)
	assert.Equal(t, "under", ov.Summary.Status)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/income", `{"name":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/income", `{"nom":"x"}`, http.StatusBadRequest},
		{"negative amount", http.MethodPost, "/api/expenses", `{"name":"x","amount":-1}`, http.StatusUnprocessableEntity},
		{"bad amount", http.MethodPost, "/api/expenses", `{"name":"x","amount":"abc"}`, http.StatusUnprocessableEntity},
		{"empty name", http.MethodPost, "/api/categories", `{"name":"  ","budget_limit":10}`, http.StatusUnprocessableEntity},
		{"bad color", http.MethodPost, "/api/categories", `{"name":"Food","color":"red"}`, http.StatusUnprocessableEntity},
		{"unknown income", http.MethodDelete, "/api/income/nope", "", http.StatusNotFound},
		{"unknown debt payment", http.MethodPost, "/api/debts/nope/payments", `{"amount":10}`, http.StatusNotFound},
		{"zero payment", http.MethodPost, "/api/debts/nope/payments", `{"amount":0}`, http.StatusUnprocessableEntity},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestRecordPaymentWarning(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/debts", `{"name":"Car","total_balance":"1000","interest_rate":"4.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var debt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &debt))

	rec, resp = env.do(t, http.MethodPost, "/api/debts/"+debt.ID+"/payments", `{"amount":"250"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, resp.Warning)

	env.store.FailMirrors(errors.New("disk full"))
	rec, resp = env.do(t, http.MethodPost, "/api/debts/"+debt.ID+"/payments", `{"amount":"100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, services.MirrorWarning, resp.Warning)

	var res struct {
		Debt struct {
			AmountPaid string `json:"amount_paid"`
		} `json:"debt"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.Equal(t, "350.00", res.Debt.AmountPaid)
}

func TestProfileUpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPut, "/api/profile", `{"weekly_limit_enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p struct {
		Currency           string `json:"currency"`
		WeeklyLimitEnabled bool   `json:"weekly_limit_enabled"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, "USD", p.Currency)
	assert.False(t, p.WeeklyLimitEnabled)
}

func TestRolloverEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/rollover", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"is_new_month":false`)

	require.NoError(t, env.store.SaveVisit(context.Background(), "owner-1", budget.MonthWindow{Month: 4, Year: 2024}))
	rec, resp = env.do(t, http.MethodGet, "/api/rollover", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"is_new_month":true`)
	assert.Contains(t, string(resp.Data), `"last_month":4`)

	rec, _ = env.do(t, http.MethodPost, "/api/rollover/ack", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, resp = env.do(t, http.MethodGet, "/api/rollover", "")
	assert.Contains(t, string(resp.Data), `"is_new_month":false`)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodPost, "/api/income", `{"name":"Salary","amount":100,"date":"2024-06-01","frequency":"one-time"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="budget-June-2024.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Type,Name,Amount,Category,Frequency\n\"Jun 1, 2024\",Income,Salary,100.00,-,one-time\n", rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()
	now := fixedNow
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("1.2.3.4"))
}

func TestRateLimiterRetryAfter(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()
	now := fixedNow
	rl.now = func() time.Time { return now }

	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do().Code)
	now = now.Add(20 * time.Second)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "40", rec.Header().Get("Retry-After"))
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.9:1234", "", "203.0.113.9"},
		{"untrusted proxy ignored", "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:1234", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}
