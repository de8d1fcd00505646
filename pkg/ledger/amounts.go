package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// AmountInCurrencies is one amount expressed in the three currencies involved in an expense.
type AmountInCurrencies struct {
	InExpenseCurrency    int64 `json:"inExpenseCurrency"`
	InCollectiveCurrency int64 `json:"inCollectiveCurrency"`
	InHostCurrency       int64 `json:"inHostCurrency"`
}

// ExpenseAmounts is the result of ComputeExpenseAmounts.
type ExpenseAmounts struct {
	FxRates             FxRates            `json:"fxRates"`
	Amount              AmountInCurrencies `json:"amount"`
	PaymentProcessorFee AmountInCurrencies `json:"paymentProcessorFee"`
	HostFee             AmountInCurrencies `json:"hostFee"`
	PlatformFee         AmountInCurrencies `json:"platformFee"`
}

// ComputeFxRates derives the rate triple from the expense to host rate.
// Only one of expense and collective currencies may differ from the host currency.
func ComputeFxRates(expenseCurrency, collectiveCurrency, hostCurrency string, expenseToHost decimal.Decimal) (FxRates, error) {
	rates := FxRates{ExpenseToHost: expenseToHost}
	switch {
	case collectiveCurrency == hostCurrency:
		rates.CollectiveToHost = one
		rates.ExpenseToCollective = expenseToHost
	case expenseCurrency == collectiveCurrency:
		rates.CollectiveToHost = expenseToHost
		rates.ExpenseToCollective = one
	default:
		return FxRates{}, fmt.Errorf("%w: expense %s, collective %s, host %s",
			ErrUnsupportedCurrencyCombination, expenseCurrency, collectiveCurrency, hostCurrency)
	}
	return rates, nil
}

// ComputeExpenseAmounts returns the gross amount and fees of a paid expense in expense,
// collective and host currencies. The expense collective must be loaded.
//
// Every representation is rounded on its own, small cross-currency discrepancies are accepted.
func ComputeExpenseAmounts(expense Expense, hostCurrency string, expenseToHostFxRate decimal.Decimal, fees Fees) (ExpenseAmounts, error) {
	if expense.Collective == nil {
		return ExpenseAmounts{}, fmt.Errorf("%w: expense collective is not loaded", ErrInvalidArgument)
	}
	if !expenseToHostFxRate.IsPositive() {
		return ExpenseAmounts{}, fmt.Errorf("%w: expense to host FX rate must be positive", ErrInvalidArgument)
	}
	if err := fees.validate(); err != nil {
		return ExpenseAmounts{}, fmt.Errorf("%w: fees must not be negative", err)
	}

	rates, err := ComputeFxRates(expense.Currency, expense.Collective.Currency, hostCurrency, expenseToHostFxRate)
	if err != nil {
		return ExpenseAmounts{}, err
	}

	amount := decimal.NewFromInt(expense.Amount)
	return ExpenseAmounts{
		FxRates: rates,
		Amount: AmountInCurrencies{
			InExpenseCurrency:    expense.Amount,
			InCollectiveCurrency: Round(amount.Mul(rates.ExpenseToCollective)),
			InHostCurrency:       Round(amount.Mul(rates.ExpenseToHost)),
		},
		PaymentProcessorFee: feeInCurrencies(fees.PaymentProcessorFeeInHostCurrency, rates),
		HostFee:             feeInCurrencies(fees.HostFeeInHostCurrency, rates),
		PlatformFee:         feeInCurrencies(fees.PlatformFeeInHostCurrency, rates),
	}, nil
}

func feeInCurrencies(feeInHostCurrency int64, rates FxRates) AmountInCurrencies {
	fee := decimal.NewFromInt(feeInHostCurrency)
	return AmountInCurrencies{
		InExpenseCurrency:    Round(fee.Div(rates.ExpenseToHost)),
		InCollectiveCurrency: Round(fee.Div(rates.CollectiveToHost)),
		InHostCurrency:       feeInHostCurrency,
	}
}

// Round rounds d to the nearest minor unit, half away from zero.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
