package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OneTime   IncomeFrequency = "one-time"
	Recurring IncomeFrequency = "recurring"
)

const (
	StandardExpense    ExpenseKind = "standard"
	DebtPaymentExpense ExpenseKind = "debt_payment"
)

const (
	// DebtPaymentPrefix names every expense mirrored from a debt payment.
	DebtPaymentPrefix = "Debt Payment: "

	DefaultCurrency      = "USD"
	DefaultCategoryColor = "#3b82f6"

	maxNameLength = 200
)

type (
	IncomeFrequency string

	ExpenseKind string

	IncomeEntry struct {
		ID        string          `json:"id"`
		OwnerID   string          `json:"owner_id"`
		Name      string          `json:"name"`
		Amount    Money           `json:"amount"`
		Date      Date            `json:"date"`
		Frequency IncomeFrequency `json:"frequency"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
	}

	Category struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"owner_id"`
		Name        string    `json:"name"`
		BudgetLimit Money     `json:"budget_limit"`
		Color       string    `json:"color"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// Expense is a single outflow. An empty CategoryID means uncategorized.
	// CategoryName and CategoryColor are filled by joined reads only.
	Expense struct {
		ID                     string      `json:"id"`
		OwnerID                string      `json:"owner_id"`
		Name                   string      `json:"name"`
		Amount                 Money       `json:"amount"`
		CategoryID             string      `json:"category_id,omitempty"`
		Date                   Date        `json:"date"`
		IsRecurring            bool        `json:"is_recurring"`
		ExcludeFromWeeklyLimit bool        `json:"exclude_from_weekly_limit"`
		Kind                   ExpenseKind `json:"kind"`
		DebtID                 string      `json:"debt_id,omitempty"`
		MirrorKey              string      `json:"mirror_key,omitempty"`
		CategoryName           string      `json:"category_name,omitempty"`
		CategoryColor          string      `json:"category_color,omitempty"`
		CreatedAt              time.Time   `json:"created_at"`
		UpdatedAt              time.Time   `json:"updated_at"`
	}

	Debt struct {
		ID           string          `json:"id"`
		OwnerID      string          `json:"owner_id"`
		Name         string          `json:"name"`
		TotalBalance Money           `json:"total_balance"`
		AmountPaid   Money           `json:"amount_paid"`
		InterestRate decimal.Decimal `json:"interest_rate"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}

	// DebtPayment is the ledger row written together with the debt increment.
	// PaidOn is the payer's calendar day; PaidAt may be stored in UTC.
	// MirroredAt stays zero until the mirrored expense exists.
	DebtPayment struct {
		ID         string    `json:"id"`
		DebtID     string    `json:"debt_id"`
		OwnerID    string    `json:"owner_id"`
		Amount     Money     `json:"amount"`
		PaidAt     time.Time `json:"paid_at"`
		PaidOn     Date      `json:"paid_on"`
		MirrorKey  string    `json:"mirror_key"`
		MirroredAt time.Time `json:"mirrored_at,omitempty"`
	}

	Profile struct {
		OwnerID            string    `json:"owner_id"`
		Currency           string    `json:"currency"`
		MonthlyIncomeGoal  Money     `json:"monthly_income_goal"`
		WeeklyLimitEnabled bool      `json:"weekly_limit_enabled"`
		CreatedAt          time.Time `json:"created_at"`
		UpdatedAt          time.Time `json:"updated_at"`
	}
)

// DefaultProfile returns the profile created on first access.
func DefaultProfile(ownerID string) Profile {
	return Profile{
		OwnerID:            ownerID,
		Currency:           DefaultCurrency,
		WeeklyLimitEnabled: true,
	}
}

func (i IncomeEntry) EntryDate() Date    { return i.Date }
func (i IncomeEntry) EntryAmount() Money { return i.Amount }
func (e Expense) EntryDate() Date        { return e.Date }
func (e Expense) EntryAmount() Money     { return e.Amount }

// IsDebtPayment reports whether the expense mirrors a debt payment.
func (e Expense) IsDebtPayment() bool {
	return e.Kind == DebtPaymentExpense
}

// IsUncategorized reports whether the expense has no category assigned.
func (e Expense) IsUncategorized() bool {
	return strings.TrimSpace(e.CategoryID) == ""
}

// Remaining is the raw outstanding balance; it goes negative on overpayment.
func (d Debt) Remaining() Money {
	return d.TotalBalance.Sub(d.AmountPaid)
}

func (d Debt) IsPaidOff() bool {
	return d.AmountPaid.Cents >= d.TotalBalance.Cents
}

// PaymentMirrorKey derives the idempotency key of a payment's mirrored
// expense. The payment id keeps two payments at the same instant apart.
func PaymentMirrorKey(debtID, paymentID string, paidAt time.Time) string {
	return fmt.Sprintf("%s:%d:%s", debtID, paidAt.UnixNano(), paymentID)
}

// MirrorExpense builds the expense that mirrors a payment on debt d.
func MirrorExpense(d Debt, p DebtPayment) Expense {
	return Expense{
		OwnerID:   d.OwnerID,
		Name:      DebtPaymentPrefix + d.Name,
		Amount:    p.Amount,
		Date:      p.Day(),
		Kind:      DebtPaymentExpense,
		DebtID:    d.ID,
		MirrorKey: p.MirrorKey,
	}
}

// Day is the calendar day the payment belongs to.
func (p DebtPayment) Day() Date {
	if !p.PaidOn.IsZero() {
		return p.PaidOn
	}
	return DateOf(p.PaidAt)
}

func (f IncomeFrequency) IsValid() bool {
	return f == OneTime || f == Recurring
}

func (k ExpenseKind) IsValid() bool {
	return k == StandardExpense || k == DebtPaymentExpense
}

func (i IncomeEntry) Validate() error {
	if err := validateName(i.Name); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if !i.Frequency.IsValid() {
		return NewValidationError("frequency", ErrInvalidFrequency.Error())
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := c.BudgetLimit.Validate(); err != nil {
		return err
	}
	if !isColorTag(c.Color) {
		return NewValidationError("color", ErrInvalidColor.Error())
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Kind.IsValid() {
		return NewValidationError("kind", "unknown expense kind")
	}
	if e.IsDebtPayment() && (e.DebtID == "" || !e.IsUncategorized()) {
		return NewValidationError("kind", "debt payment expense needs a debt and no category")
	}
	return nil
}

func (d Debt) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if err := d.TotalBalance.Validate(); err != nil {
		return err
	}
	if err := d.AmountPaid.Validate(); err != nil {
		return err
	}
	if d.InterestRate.IsNegative() {
		return NewValidationError("interest_rate", "must not be negative")
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Currency) == "" {
		return NewValidationError("currency", "must not be empty")
	}
	if len(p.Currency) > 8 {
		return NewValidationError("currency", "too long (max 8 characters)")
	}
	return p.MonthlyIncomeGoal.Validate()
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return NewValidationError("name", "too long (max 200 characters)")
	}
	return nil
}

func isColorTag(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
