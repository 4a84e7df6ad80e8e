package budget

import "budget/internal/core"

// DebtTotals aggregates the debt list.
type DebtTotals struct {
	TotalBalance   core.Money `json:"total_balance"`
	TotalPaid      core.Money `json:"total_paid"`
	TotalRemaining core.Money `json:"total_remaining"`
	PaidOffCount   int        `json:"paid_off_count"`
	ActiveCount    int        `json:"active_count"`
}

func SummarizeDebts(debts []core.Debt) DebtTotals {
	var t DebtTotals
	for _, d := range debts {
		t.TotalBalance = t.TotalBalance.Add(d.TotalBalance)
		t.TotalPaid = t.TotalPaid.Add(d.AmountPaid)
		if d.IsPaidOff() {
			t.PaidOffCount++
		}
	}
	t.TotalRemaining = t.TotalBalance.Sub(t.TotalPaid)
	t.ActiveCount = len(debts) - t.PaidOffCount
	return t
}
