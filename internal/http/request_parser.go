package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks bodies that are not the expected JSON document.
var errBadRequest = errors.New("invalid request body")

// decodeJSON reads exactly one JSON object into dst. Amount and date fields
// that fail to parse surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

type incomeRequest struct {
	Name      string               `json:"name"`
	Amount    core.Money           `json:"amount"`
	Date      core.Date            `json:"date"`
	Frequency core.IncomeFrequency `json:"frequency"`
}

func (req incomeRequest) entry(today core.Date) core.IncomeEntry {
	if req.Date.IsZero() {
		req.Date = today
	}
	if req.Frequency == "" {
		req.Frequency = core.OneTime
	}
	return core.IncomeEntry{
		Name:      sanitizeInput(req.Name),
		Amount:    req.Amount,
		Date:      req.Date,
		Frequency: req.Frequency,
	}
}

type categoryRequest struct {
	Name        string     `json:"name"`
	BudgetLimit core.Money `json:"budget_limit"`
	Color       string     `json:"color"`
}

func (req categoryRequest) category(id string) core.Category {
	return core.Category{
		ID:          id,
		Name:        sanitizeInput(req.Name),
		BudgetLimit: req.BudgetLimit,
		Color:       strings.TrimSpace(req.Color),
	}
}

type expenseRequest struct {
	Name                   string     `json:"name"`
	Amount                 core.Money `json:"amount"`
	CategoryID             string     `json:"category_id"`
	Date                   core.Date  `json:"date"`
	IsRecurring            bool       `json:"is_recurring"`
	ExcludeFromWeeklyLimit bool       `json:"exclude_from_weekly_limit"`
}

func (req expenseRequest) expense(today core.Date) core.Expense {
	if req.Date.IsZero() {
		req.Date = today
	}
	return core.Expense{
		Name:                   sanitizeInput(req.Name),
		Amount:                 req.Amount,
		CategoryID:             strings.TrimSpace(req.CategoryID),
		Date:                   req.Date,
		IsRecurring:            req.IsRecurring,
		ExcludeFromWeeklyLimit: req.ExcludeFromWeeklyLimit,
	}
}

type debtRequest struct {
	Name         string          `json:"name"`
	TotalBalance core.Money      `json:"total_balance"`
	AmountPaid   core.Money      `json:"amount_paid"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

func (req debtRequest) debt(id string) core.Debt {
	return core.Debt{
		ID:           id,
		Name:         sanitizeInput(req.Name),
		TotalBalance: req.TotalBalance,
		AmountPaid:   req.AmountPaid,
		InterestRate: req.InterestRate,
	}
}

type paymentRequest struct {
	Amount core.Money `json:"amount"`
}

// profileRequest leaves fields that are omitted unchanged.
type profileRequest struct {
	Currency           *string     `json:"currency"`
	MonthlyIncomeGoal  *core.Money `json:"monthly_income_goal"`
	WeeklyLimitEnabled *bool       `json:"weekly_limit_enabled"`
}

func (req profileRequest) apply(p core.Profile) core.Profile {
	if req.Currency != nil {
		p.Currency = sanitizeInput(*req.Currency)
	}
	if req.MonthlyIncomeGoal != nil {
		p.MonthlyIncomeGoal = *req.MonthlyIncomeGoal
	}
	if req.WeeklyLimitEnabled != nil {
		p.WeeklyLimitEnabled = *req.WeeklyLimitEnabled
	}
	return p
}

// sanitizeInput trims and strips control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
