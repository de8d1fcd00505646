package endpoint

import (
	"context"

	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
	"github.com/khaliullov/expense-ledger/pkg/service"
)

// Set collects all of the endpoints that compose the ledger service. It's meant to
// be used as a helper struct, to collect all of the endpoints into a single
// parameter.
type Set struct {
	HealthCheckEndpoint        ep.Endpoint
	PayExpenseEndpoint         ep.Endpoint
	PayExpenseManuallyEndpoint ep.Endpoint
	TransactionHistoryEndpoint ep.Endpoint
	TaxSummaryEndpoint         ep.Endpoint
}

// New returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func New(svc service.Service, logger log.Logger) Set {
	var healthCheckEndpoint ep.Endpoint
	{
		healthCheckEndpoint = MakeHealthCheckEndpoint(svc)
		healthCheckEndpoint = LoggingMiddleware(log.With(logger, "method", "HealthCheck"))(healthCheckEndpoint)
	}
	var payExpenseEndpoint ep.Endpoint
	{
		payExpenseEndpoint = MakePayExpenseEndpoint(svc)
		payExpenseEndpoint = LoggingMiddleware(log.With(logger, "method", "PayExpense"))(payExpenseEndpoint)
	}
	var payExpenseManuallyEndpoint ep.Endpoint
	{
		payExpenseManuallyEndpoint = MakePayExpenseManuallyEndpoint(svc)
		payExpenseManuallyEndpoint = LoggingMiddleware(log.With(logger, "method", "PayExpenseManually"))(payExpenseManuallyEndpoint)
	}
	var transactionHistoryEndpoint ep.Endpoint
	{
		transactionHistoryEndpoint = MakeTransactionHistoryEndpoint(svc)
		transactionHistoryEndpoint = LoggingMiddleware(log.With(logger, "method", "TransactionHistory"))(transactionHistoryEndpoint)
	}
	var taxSummaryEndpoint ep.Endpoint
	{
		taxSummaryEndpoint = MakeTaxSummaryEndpoint(svc)
		taxSummaryEndpoint = LoggingMiddleware(log.With(logger, "method", "TaxSummary"))(taxSummaryEndpoint)
	}
	return Set{
		HealthCheckEndpoint:        healthCheckEndpoint,
		PayExpenseEndpoint:         payExpenseEndpoint,
		PayExpenseManuallyEndpoint: payExpenseManuallyEndpoint,
		TransactionHistoryEndpoint: transactionHistoryEndpoint,
		TaxSummaryEndpoint:         taxSummaryEndpoint,
	}
}

// LoggingMiddleware returns an endpoint middleware that logs the
// duration of each invocation, and the resulting error, if any.
func LoggingMiddleware(logger log.Logger) ep.Middleware {
	return func(next ep.Endpoint) ep.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func() {
				_ = level.Debug(logger).Log("transport_error", err)
			}()
			return next(ctx, request)
		}
	}
}

// HealthCheck implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := s.HealthCheckEndpoint(ctx, HealthCheckRequest{})
	if err != nil {
		return false, err
	}
	response := resp.(HealthCheckResponse)
	return response.Success, response.Error
}

// CreateTransactionsFromPaidExpense implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) CreateTransactionsFromPaidExpense(ctx context.Context, paid service.PaidExpense) (*ledger.DoubleEntry, error) {
	resp, err := s.PayExpenseEndpoint(ctx, PayExpenseRequest{PaidExpense: paid})
	if err != nil {
		return nil, err
	}
	response := resp.(DoubleEntryResponse)
	return response.Entry, response.Error
}

// CreateTransactionsForManuallyPaidExpense implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) CreateTransactionsForManuallyPaidExpense(ctx context.Context, payment service.ManualPayment) (*ledger.DoubleEntry, error) {
	resp, err := s.PayExpenseManuallyEndpoint(ctx, PayExpenseManuallyRequest{ManualPayment: payment})
	if err != nil {
		return nil, err
	}
	response := resp.(DoubleEntryResponse)
	return response.Entry, response.Error
}

// TransactionHistory implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) TransactionHistory(ctx context.Context, collectiveID int64) ([]*ledger.Transaction, error) {
	resp, err := s.TransactionHistoryEndpoint(ctx, TransactionHistoryRequest{CollectiveID: collectiveID})
	if err != nil {
		return nil, err
	}
	response := resp.(TransactionHistoryResponse)
	return response.Transactions, response.Error
}

// TaxSummary implements the service interface, so Set may be used as a service.
// This is primarily useful in the context of a client library.
func (s Set) TaxSummary(ctx context.Context, collectiveID int64) ([]ledger.TaxTotal, error) {
	resp, err := s.TaxSummaryEndpoint(ctx, TaxSummaryRequest{CollectiveID: collectiveID})
	if err != nil {
		return nil, err
	}
	response := resp.(TaxSummaryResponse)
	return response.Taxes, response.Error
}

// MakeHealthCheckEndpoint constructs a HealthCheck endpoint wrapping the service.
func MakeHealthCheckEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, _ interface{}) (response interface{}, err error) {
		v, err := s.HealthCheck(ctx)
		return HealthCheckResponse{Success: v, Error: err}, nil
	}
}

// MakePayExpenseEndpoint constructs a PayExpense endpoint wrapping the service.
func MakePayExpenseEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(PayExpenseRequest)
		v, err := s.CreateTransactionsFromPaidExpense(ctx, req.PaidExpense)
		return DoubleEntryResponse{Success: err == nil, Entry: v, Error: err}, nil
	}
}

// MakePayExpenseManuallyEndpoint constructs a PayExpenseManually endpoint wrapping the service.
func MakePayExpenseManuallyEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(PayExpenseManuallyRequest)
		v, err := s.CreateTransactionsForManuallyPaidExpense(ctx, req.ManualPayment)
		return DoubleEntryResponse{Success: err == nil, Entry: v, Error: err}, nil
	}
}

// MakeTransactionHistoryEndpoint constructs a TransactionHistory endpoint wrapping the service.
func MakeTransactionHistoryEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(TransactionHistoryRequest)
		v, err := s.TransactionHistory(ctx, req.CollectiveID)
		return TransactionHistoryResponse{Success: err == nil, Transactions: v, Error: err}, nil
	}
}

// MakeTaxSummaryEndpoint constructs a TaxSummary endpoint wrapping the service.
func MakeTaxSummaryEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(TaxSummaryRequest)
		v, err := s.TaxSummary(ctx, req.CollectiveID)
		return TaxSummaryResponse{Success: err == nil, Taxes: v, Error: err}, nil
	}
}

// compile time assertions for our response types implementing endpoint.Failer.
var (
	_ ep.Failer = HealthCheckResponse{}
	_ ep.Failer = DoubleEntryResponse{}
	_ ep.Failer = TransactionHistoryResponse{}
	_ ep.Failer = TaxSummaryResponse{}
)

// HealthCheckRequest collects the request parameters for the HealthCheck method.
type HealthCheckRequest struct{}

// PayExpenseRequest collects the request parameters for the PayExpense method.
type PayExpenseRequest struct {
	service.PaidExpense
}

// PayExpenseManuallyRequest collects the request parameters for the PayExpenseManually method.
type PayExpenseManuallyRequest struct {
	service.ManualPayment
}

// TransactionHistoryRequest collects the request parameters for the TransactionHistory method.
type TransactionHistoryRequest struct {
	CollectiveID int64
}

// TaxSummaryRequest collects the request parameters for the TaxSummary method.
type TaxSummaryRequest struct {
	CollectiveID int64
}

// HealthCheckResponse collects the response values for the HealthCheck method.
type HealthCheckResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"-"`
}

// DoubleEntryResponse collects the response values for both payment methods.
type DoubleEntryResponse struct {
	Success bool                `json:"success"`
	Entry   *ledger.DoubleEntry `json:"transactions,omitempty"`
	Error   error               `json:"-"`
}

// TransactionHistoryResponse collects the response values for the TransactionHistory method.
type TransactionHistoryResponse struct {
	Success      bool                  `json:"success"`
	Transactions []*ledger.Transaction `json:"transactions"`
	Error        error                 `json:"-"`
}

// TaxSummaryResponse collects the response values for the TaxSummary method.
type TaxSummaryResponse struct {
	Success bool              `json:"success"`
	Taxes   []ledger.TaxTotal `json:"taxes"`
	Error   error             `json:"-"`
}

// Failed implements endpoint.Failer.
func (r HealthCheckResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r DoubleEntryResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r TransactionHistoryResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r TaxSummaryResponse) Failed() error {
	return r.Error
}
