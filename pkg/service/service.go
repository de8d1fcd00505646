package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"

	"github.com/khaliullov/expense-ledger/pkg/fxrate"
	"github.com/khaliullov/expense-ledger/pkg/ledger"
	"github.com/khaliullov/expense-ledger/pkg/repository"
)

// manualFxRatePlaces is the precision of rates derived from manually recorded payments.
const manualFxRatePlaces = 5

// PaidExpense collects what is known about an expense paid through a payout provider.
type PaidExpense struct {
	Host    ledger.Host    `json:"host"`
	Expense ledger.Expense `json:"expense"`
	Fees    ledger.Fees    `json:"fees"`
	// FxRate is the expense to host currency rate, or a request to fetch the live one.
	FxRate          ledger.FxRateSource    `json:"expenseToHostFxRate"`
	TransactionData ledger.TransactionData `json:"transactionData"`
	// PaymentMethodID references the legacy payment method used, if any.
	PaymentMethodID *int64 `json:"paymentMethodId,omitempty"`
}

// ManualPayment collects what is known about an expense paid outside of the platform.
type ManualPayment struct {
	Host                              ledger.Host            `json:"host"`
	Expense                           ledger.Expense         `json:"expense"`
	PaymentProcessorFeeInHostCurrency int64                  `json:"paymentProcessorFeeInHostCurrency"`
	TotalAmountPaidInHostCurrency     int64                  `json:"totalAmountPaidInHostCurrency"`
	TransactionData                   ledger.TransactionData `json:"transactionData"`
}

// Service records paid expenses in the ledger.
type Service interface {
	HealthCheck(ctx context.Context) (bool, error)
	CreateTransactionsFromPaidExpense(ctx context.Context, paid PaidExpense) (*ledger.DoubleEntry, error)
	CreateTransactionsForManuallyPaidExpense(ctx context.Context, payment ManualPayment) (*ledger.DoubleEntry, error)
	TransactionHistory(ctx context.Context, collectiveID int64) ([]*ledger.Transaction, error)
	TaxSummary(ctx context.Context, collectiveID int64) ([]ledger.TaxTotal, error)
}

// New returns a ledger Service with all of the expected middlewares wired in.
func New(repository repository.Repository, rates fxrate.Provider, logger log.Logger) Service {
	var svc Service
	{
		svc = NewLedgerService(repository, rates, time.Now)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

// NewLedgerService returns a stateless implementation of Service.
// now is the clock used for live FX rate lookups.
func NewLedgerService(repository repository.Repository, rates fxrate.Provider, now func() time.Time) Service {
	return ledgerService{
		repository: repository,
		rates:      rates,
		now:        now,
	}
}

type ledgerService struct {
	repository repository.Repository
	rates      fxrate.Provider
	now        func() time.Time
}

// HealthCheck implements Service.
func (ls ledgerService) HealthCheck(_ context.Context) (bool, error) {
	return true, nil
}

// CreateTransactionsFromPaidExpense implements Service.
func (ls ledgerService) CreateTransactionsFromPaidExpense(ctx context.Context, paid PaidExpense) (*ledger.DoubleEntry, error) {
	expense := paid.Expense
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := paid.FxRate.Validate(); err != nil {
		return nil, err
	}

	var err error
	if expense.Collective, err = ls.loadCollective(ctx, expense); err != nil {
		return nil, err
	}

	rate := paid.FxRate.Rate()
	if paid.FxRate.IsLive() {
		rate, err = ls.rates.GetRate(ctx, expense.Currency, paid.Host.Currency, ls.now())
		if err != nil {
			return nil, err
		}
	}

	amounts, err := ledger.ComputeExpenseAmounts(expense, paid.Host.Currency, rate, paid.Fees)
	if err != nil {
		return nil, err
	}

	data := paid.TransactionData.
		WithExpenseToHostFxRate(rate).
		WithTax(ledger.ExpenseTaxInfo(expense))

	txn := newExpenseTransaction(paid.Host, expense)
	txn.PaymentMethodID = paid.PaymentMethodID
	txn.Amount = -amounts.Amount.InCollectiveCurrency
	txn.AmountInHostCurrency = -amounts.Amount.InHostCurrency
	txn.HostCurrencyFxRate = amounts.FxRates.CollectiveToHost
	txn.NetAmountInCollectiveCurrency = -(amounts.Amount.InCollectiveCurrency +
		amounts.PaymentProcessorFee.InCollectiveCurrency +
		amounts.HostFee.InCollectiveCurrency +
		amounts.PlatformFee.InCollectiveCurrency)
	txn.PaymentProcessorFeeInHostCurrency = -amounts.PaymentProcessorFee.InHostCurrency
	txn.HostFeeInHostCurrency = -amounts.HostFee.InHostCurrency
	txn.PlatformFeeInHostCurrency = -amounts.PlatformFee.InHostCurrency

	// the payee absorbs the processor fee: the collective pays that much less
	if expense.PaidByPayee() {
		txn.Amount += amounts.PaymentProcessorFee.InCollectiveCurrency
		txn.AmountInHostCurrency += amounts.PaymentProcessorFee.InHostCurrency
		txn.NetAmountInCollectiveCurrency += amounts.PaymentProcessorFee.InCollectiveCurrency
		data = data.WithFeesPayer(ledger.FeesPayerPayee)
	}

	txn.Data = data
	txn.TaxAmount = ledger.ComputeExpenseTaxes(expense)
	return ls.repository.CreateDoubleEntry(ctx, txn)
}

// CreateTransactionsForManuallyPaidExpense implements Service.
//
// Only host currency totals are known, the collective rate is derived from the amount paid.
// When the payee pays the fees the total is expected to be net of them already.
func (ls ledgerService) CreateTransactionsForManuallyPaidExpense(ctx context.Context, payment ManualPayment) (*ledger.DoubleEntry, error) {
	fee, total := payment.PaymentProcessorFeeInHostCurrency, payment.TotalAmountPaidInHostCurrency
	if fee < 0 {
		return nil, fmt.Errorf("%w: payment processor fee must be positive or zero", ledger.ErrInvalidArgument)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total amount paid must be positive", ledger.ErrInvalidArgument)
	}
	if fee > total {
		return nil, fmt.Errorf("%w: payment processor fee exceeds total amount paid", ledger.ErrInvalidArgument)
	}

	expense := payment.Expense
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	var err error
	if expense.Collective, err = ls.loadCollective(ctx, expense); err != nil {
		return nil, err
	}

	grossAmount := -(total - fee)
	txn := newExpenseTransaction(payment.Host, expense)
	txn.Amount = grossAmount
	txn.AmountInHostCurrency = grossAmount
	txn.NetAmountInCollectiveCurrency = -total
	txn.HostCurrencyFxRate = decimal.NewFromInt(1)
	txn.PaymentProcessorFeeInHostCurrency = -fee

	data := payment.TransactionData
	if expense.PaidByPayee() {
		data = data.WithFeesPayer(ledger.FeesPayerPayee)
	}

	if payment.Host.Currency != expense.Collective.Currency {
		if expense.Currency != expense.Collective.Currency {
			return nil, fmt.Errorf("%w: manual payments of %s expenses for a %s collective hosted in %s",
				ledger.ErrUnsupportedCurrencyCombination, expense.Currency, expense.Collective.Currency, payment.Host.Currency)
		}
		if expense.Amount == 0 || grossAmount == 0 {
			return nil, fmt.Errorf("%w: can't derive FX rate from a zero amount", ledger.ErrInvalidArgument)
		}
		rate := decimal.NewFromInt(grossAmount).Div(decimal.NewFromInt(expense.Amount)).Abs().Round(manualFxRatePlaces)
		if rate.IsZero() {
			return nil, fmt.Errorf("%w: derived FX rate rounds to zero", ledger.ErrInvalidArgument)
		}
		txn.HostCurrencyFxRate = rate
		txn.Amount = ledger.Round(decimal.NewFromInt(txn.Amount).Div(rate))
		txn.NetAmountInCollectiveCurrency = ledger.Round(decimal.NewFromInt(txn.NetAmountInCollectiveCurrency).Div(rate))
	}

	txn.Data = data.WithTax(ledger.ExpenseTaxInfo(expense)).AsManual()
	txn.TaxAmount = ledger.ComputeExpenseTaxes(expense)
	return ls.repository.CreateDoubleEntry(ctx, txn)
}

// TransactionHistory implements Service.
func (ls ledgerService) TransactionHistory(ctx context.Context, collectiveID int64) ([]*ledger.Transaction, error) {
	return ls.repository.GetTransactions(ctx, collectiveID)
}

// TaxSummary implements Service. Only the collective's own rows are summarized.
func (ls ledgerService) TaxSummary(ctx context.Context, collectiveID int64) ([]ledger.TaxTotal, error) {
	transactions, err := ls.repository.GetTransactions(ctx, collectiveID)
	if err != nil {
		return nil, err
	}
	own := make([]*ledger.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txn.CollectiveID == collectiveID {
			own = append(own, txn)
		}
	}
	return ledger.SummarizeTaxes(own), nil
}

func (ls ledgerService) loadCollective(ctx context.Context, expense ledger.Expense) (*ledger.Collective, error) {
	if expense.Collective != nil {
		return expense.Collective, nil
	}
	return ls.repository.GetCollective(ctx, expense.CollectiveID)
}

// newExpenseTransaction returns the debit skeleton shared by both payment paths.
// Transactions are always recorded in the collective currency.
func newExpenseTransaction(host ledger.Host, expense ledger.Expense) *ledger.Transaction {
	return &ledger.Transaction{
		Type:             ledger.TransactionTypeDebit,
		Kind:             ledger.TransactionKindExpense,
		Description:      expense.Description,
		Currency:         expense.Collective.Currency,
		HostCurrency:     host.Currency,
		CollectiveID:     expense.CollectiveID,
		FromCollectiveID: expense.FromCollectiveID,
		HostCollectiveID: host.ID,
		ExpenseID:        expense.ID,
		PayoutMethodID:   expense.PayoutMethodID,
		CreatedByUserID:  expense.CreatedByUserID,
	}
}
