package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeExpenseTaxes(t *testing.T) {
	expense := newExpense(1200, "USD", "USD")

	assert.Nil(t, ComputeExpenseTaxes(expense), "no tax lines means no tax, not zero tax")

	expense.Taxes = []TaxLine{{Type: "VAT", Rate: decimal.RequireFromString("0.20")}}
	tax := ComputeExpenseTaxes(expense)
	require.NotNil(t, tax)
	assert.Equal(t, int64(-200), *tax)

	expense.Taxes = []TaxLine{{Type: "VAT", Rate: decimal.Zero}}
	tax = ComputeExpenseTaxes(expense)
	require.NotNil(t, tax)
	assert.Equal(t, int64(0), *tax)
}

func TestComputeExpenseTaxesSumsRates(t *testing.T) {
	expense := newExpense(11300, "CAD", "CAD")
	expense.Taxes = []TaxLine{
		{Type: "GST", Rate: decimal.RequireFromString("0.05")},
		{Type: "PST", Rate: decimal.RequireFromString("0.08")},
	}
	tax := ComputeExpenseTaxes(expense)
	require.NotNil(t, tax)
	// 11300 / 1.13 = 10000
	assert.Equal(t, int64(-1300), *tax)
}

func TestComputeExpenseTaxesRounds(t *testing.T) {
	expense := newExpense(1000, "EUR", "EUR")
	expense.Taxes = []TaxLine{{Type: "VAT", Rate: decimal.RequireFromString("0.21")}}
	tax := ComputeExpenseTaxes(expense)
	require.NotNil(t, tax)
	// 1000 - 1000 / 1.21 = 173.55
	assert.Equal(t, int64(-174), *tax)
}

func TestExpenseTaxInfo(t *testing.T) {
	expense := newExpense(1000, "EUR", "EUR")
	assert.Nil(t, ExpenseTaxInfo(expense))

	expense.Taxes = []TaxLine{
		{Type: "GST", Rate: decimal.RequireFromString("0.123456")},
		{Type: "VAT", Rate: decimal.RequireFromString("0.2")},
	}
	info := ExpenseTaxInfo(expense)
	require.NotNil(t, info)
	assert.Equal(t, "GST", info.ID)
	assert.Equal(t, "GST", info.Type)
	assert.Equal(t, "0.1235", info.Rate.String())
	assert.Equal(t, int64(12), info.Percentage)
}

func TestExpenseValidate(t *testing.T) {
	expense := newExpense(1000, "EUR", "EUR")
	assert.NoError(t, expense.Validate())

	expense.Taxes = []TaxLine{{Type: "VAT", Rate: decimal.RequireFromString("-0.1")}}
	assert.ErrorIs(t, expense.Validate(), ErrInvalidArgument)

	expense = newExpense(1000, "EUR", "EUR")
	expense.CollectiveID = 0
	assert.ErrorIs(t, expense.Validate(), ErrInvalidArgument)
}
