package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(Service) Service

// LoggingMiddleware takes a logger as a dependency
// and returns a ServiceMiddleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) HealthCheck(ctx context.Context) (success bool, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "HealthCheck", "success", success, "err", err)
	}()
	return mw.next.HealthCheck(ctx)
}

func (mw loggingMiddleware) CreateTransactionsFromPaidExpense(ctx context.Context, paid PaidExpense) (entry *ledger.DoubleEntry, err error) {
	defer func() {
		_ = mw.logFor(err).Log("method", "CreateTransactionsFromPaidExpense", "expense", paid.Expense.ID,
			"host", paid.Host.ID, "amount", paid.Expense.Amount, "currency", paid.Expense.Currency,
			"live_rate", paid.FxRate.IsLive(), "fees_payer", paid.Expense.FeesPayer, "err", err)
	}()
	return mw.next.CreateTransactionsFromPaidExpense(ctx, paid)
}

func (mw loggingMiddleware) CreateTransactionsForManuallyPaidExpense(ctx context.Context, payment ManualPayment) (entry *ledger.DoubleEntry, err error) {
	defer func() {
		_ = mw.logFor(err).Log("method", "CreateTransactionsForManuallyPaidExpense", "expense", payment.Expense.ID,
			"host", payment.Host.ID, "total", payment.TotalAmountPaidInHostCurrency,
			"fee", payment.PaymentProcessorFeeInHostCurrency, "err", err)
	}()
	return mw.next.CreateTransactionsForManuallyPaidExpense(ctx, payment)
}

func (mw loggingMiddleware) TransactionHistory(ctx context.Context, collectiveID int64) (_ []*ledger.Transaction, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "TransactionHistory", "collective", collectiveID, "err", err)
	}()
	return mw.next.TransactionHistory(ctx, collectiveID)
}

func (mw loggingMiddleware) TaxSummary(ctx context.Context, collectiveID int64) (_ []ledger.TaxTotal, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "TaxSummary", "collective", collectiveID, "err", err)
	}()
	return mw.next.TaxSummary(ctx, collectiveID)
}

func (mw loggingMiddleware) logFor(err error) log.Logger {
	if err != nil {
		return level.Error(mw.logger)
	}
	return level.Info(mw.logger)
}
