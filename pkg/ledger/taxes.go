package ledger

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TaxInfo is the tax block stored in transaction data.
type TaxInfo struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Rate decimal.Decimal `json:"rate"`
	// Percentage is kept for readers of the legacy integer field.
	Percentage int64 `json:"percentage"`
}

// ExpenseTaxInfo returns the tax block of the first expense tax, nil if the expense has none.
func ExpenseTaxInfo(expense Expense) *TaxInfo {
	if len(expense.Taxes) == 0 {
		return nil
	}
	tax := expense.Taxes[0]
	return &TaxInfo{
		ID:         tax.Type,
		Type:       tax.Type,
		Rate:       tax.Rate.Round(4),
		Percentage: Round(tax.Rate.Mul(hundred)),
	}
}

// ComputeExpenseTaxes returns the signed tax amount included in the expense amount,
// or nil when no tax applies. Expense amounts are tax inclusive.
func ComputeExpenseTaxes(expense Expense) *int64 {
	if len(expense.Taxes) == 0 {
		return nil
	}

	ratesSum := decimal.Zero
	for _, tax := range expense.Taxes {
		ratesSum = ratesSum.Add(tax.Rate)
	}

	amount := decimal.NewFromInt(expense.Amount)
	amountWithoutTaxes := amount.Div(one.Add(ratesSum))
	taxAmount := -Round(amount.Sub(amountWithoutTaxes))
	return &taxAmount
}
