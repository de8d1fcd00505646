package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	trans "github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"

	"github.com/khaliullov/expense-ledger/pkg/endpoint"
	"github.com/khaliullov/expense-ledger/pkg/ledger"
	"github.com/khaliullov/expense-ledger/pkg/repository"
	"github.com/khaliullov/expense-ledger/pkg/service"
)

// HTTP paths
const (
	HealthCheckPath        = "/v1/healthcheck"
	PayExpensePath         = "/v1/expenses/pay"
	PayExpenseManuallyPath = "/v1/expenses/pay-manually"
	TransactionPath        = "/v1/collectives/{id}/transactions"
	TaxSummaryPath         = "/v1/collectives/{id}/taxes"
)

// errors recognised on both sides of the wire
var knownErrors = []error{
	ledger.ErrUnsupportedCurrencyCombination,
	ledger.ErrInvalidArgument,
	ledger.ErrRateUnavailable,
	ledger.ErrCollectiveNotFound,
	repository.ErrTransactionFailed,
}

// NewHTTPHandler returns an HTTP handler that makes a set of endpoints
// available on predefined paths.
func NewHTTPHandler(endpoints endpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(trans.NewLogErrorHandler(logger)),
	}

	m := mux.NewRouter()
	m.Methods("GET").Path(HealthCheckPath).Handler(httptransport.NewServer(
		endpoints.HealthCheckEndpoint,
		decodeHTTPHealthCheckRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("POST").Path(PayExpensePath).Handler(httptransport.NewServer(
		endpoints.PayExpenseEndpoint,
		decodeHTTPPayExpenseRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("POST").Path(PayExpenseManuallyPath).Handler(httptransport.NewServer(
		endpoints.PayExpenseManuallyEndpoint,
		decodeHTTPPayExpenseManuallyRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path(TransactionPath).Handler(httptransport.NewServer(
		endpoints.TransactionHistoryEndpoint,
		decodeHTTPTransactionRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	m.Methods("GET").Path(TaxSummaryPath).Handler(httptransport.NewServer(
		endpoints.TaxSummaryEndpoint,
		decodeHTTPTaxSummaryRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	return m
}

// NewHTTPClient returns a Service backed by an HTTP server living at the remote instance.
func NewHTTPClient(instance string, logger log.Logger) (service.Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	newClient := func(method, path string, enc httptransport.EncodeRequestFunc, dec httptransport.DecodeResponseFunc) ep.Endpoint {
		target := *u
		target.Path = path
		return httptransport.NewClient(method, &target, enc, dec).Endpoint()
	}

	return endpoint.Set{
		HealthCheckEndpoint:        newClient("GET", HealthCheckPath, encodeHTTPEmptyRequest, decodeHTTPHealthCheckResponse),
		PayExpenseEndpoint:         newClient("POST", PayExpensePath, encodeHTTPJSONRequest, decodeHTTPDoubleEntryResponse),
		PayExpenseManuallyEndpoint: newClient("POST", PayExpenseManuallyPath, encodeHTTPJSONRequest, decodeHTTPDoubleEntryResponse),
		TransactionHistoryEndpoint: newClient("GET", TransactionPath, encodeHTTPCollectiveRequest, decodeHTTPTransactionHistoryResponse),
		TaxSummaryEndpoint:         newClient("GET", TaxSummaryPath, encodeHTTPCollectiveRequest, decodeHTTPTaxSummaryResponse),
	}, nil
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err2code(err))
	_ = json.NewEncoder(w).Encode(errorWrapper{Success: false, Error: err.Error()})
}

func err2code(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument), errors.Is(err, ledger.ErrUnsupportedCurrencyCombination):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrCollectiveNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrRateUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// str2err restores the sentinel behind an error message received over the wire.
func str2err(msg string) error {
	for _, known := range knownErrors {
		if strings.HasPrefix(msg, known.Error()) {
			return fmt.Errorf("%w%s", known, strings.TrimPrefix(msg, known.Error()))
		}
	}
	return errors.New(msg)
}

type errorWrapper struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// decodeHTTPHealthCheckRequest is a transport/http.DecodeRequestFunc that decodes a
// HealthCheck request. Primarily useful in a server.
func decodeHTTPHealthCheckRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return endpoint.HealthCheckRequest{}, nil
}

// decodeHTTPPayExpenseRequest is a transport/http.DecodeRequestFunc that decodes a
// JSON-encoded PayExpense request from the HTTP request body. Primarily useful in a
// server.
func decodeHTTPPayExpenseRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req endpoint.PayExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, wrapDecodeError(err)
	}
	return req, nil
}

// decodeHTTPPayExpenseManuallyRequest is a transport/http.DecodeRequestFunc that decodes a
// JSON-encoded PayExpenseManually request from the HTTP request body. Primarily useful in a
// server.
func decodeHTTPPayExpenseManuallyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req endpoint.PayExpenseManuallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, wrapDecodeError(err)
	}
	return req, nil
}

// decodeHTTPTransactionRequest is a transport/http.DecodeRequestFunc that decodes a
// TransactionHistory request from the URL path. Primarily useful in a server.
func decodeHTTPTransactionRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := collectiveID(r)
	if err != nil {
		return nil, err
	}
	return endpoint.TransactionHistoryRequest{CollectiveID: id}, nil
}

// decodeHTTPTaxSummaryRequest is a transport/http.DecodeRequestFunc that decodes a
// TaxSummary request from the URL path. Primarily useful in a server.
func decodeHTTPTaxSummaryRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := collectiveID(r)
	if err != nil {
		return nil, err
	}
	return endpoint.TaxSummaryRequest{CollectiveID: id}, nil
}

func collectiveID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: collective id: %v", ledger.ErrInvalidArgument, err)
	}
	return id, nil
}

func wrapDecodeError(err error) error {
	if errors.Is(err, ledger.ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %v", ledger.ErrInvalidArgument, err)
}

// encodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that encodes
// the response as JSON to the response writer. Primarily useful in a server.
func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(ep.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

// encodeHTTPEmptyRequest is a transport/http.EncodeRequestFunc for requests without a body.
func encodeHTTPEmptyRequest(_ context.Context, _ *http.Request, _ interface{}) error {
	return nil
}

// encodeHTTPJSONRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPJSONRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = io.NopCloser(&buf)
	r.ContentLength = int64(buf.Len())
	return nil
}

// encodeHTTPCollectiveRequest is a transport/http.EncodeRequestFunc that puts the
// collective id of the request into the URL path. Primarily useful in a client.
func encodeHTTPCollectiveRequest(_ context.Context, r *http.Request, request interface{}) error {
	var id int64
	switch req := request.(type) {
	case endpoint.TransactionHistoryRequest:
		id = req.CollectiveID
	case endpoint.TaxSummaryRequest:
		id = req.CollectiveID
	default:
		return fmt.Errorf("unexpected request %T", request)
	}
	r.URL.Path = strings.Replace(r.URL.Path, "{id}", strconv.FormatInt(id, 10), 1)
	return nil
}

// decodeHTTPHealthCheckResponse is a transport/http.DecodeResponseFunc that decodes
// a JSON-encoded HealthCheck response. Primarily useful in a client.
func decodeHTTPHealthCheckResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp struct {
		errorWrapper
	}
	if err := decodeHTTPResponse(r, &resp); err != nil {
		return nil, err
	}
	return endpoint.HealthCheckResponse{Success: resp.Success, Error: responseError(resp.errorWrapper)}, nil
}

// decodeHTTPDoubleEntryResponse is a transport/http.DecodeResponseFunc that decodes
// a JSON-encoded payment response. Primarily useful in a client.
func decodeHTTPDoubleEntryResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp struct {
		errorWrapper
		Entry *ledger.DoubleEntry `json:"transactions"`
	}
	if err := decodeHTTPResponse(r, &resp); err != nil {
		return nil, err
	}
	return endpoint.DoubleEntryResponse{Success: resp.Success, Entry: resp.Entry, Error: responseError(resp.errorWrapper)}, nil
}

// decodeHTTPTransactionHistoryResponse is a transport/http.DecodeResponseFunc that decodes
// a JSON-encoded TransactionHistory response. Primarily useful in a client.
func decodeHTTPTransactionHistoryResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp struct {
		errorWrapper
		Transactions []*ledger.Transaction `json:"transactions"`
	}
	if err := decodeHTTPResponse(r, &resp); err != nil {
		return nil, err
	}
	return endpoint.TransactionHistoryResponse{Success: resp.Success, Transactions: resp.Transactions, Error: responseError(resp.errorWrapper)}, nil
}

// decodeHTTPTaxSummaryResponse is a transport/http.DecodeResponseFunc that decodes
// a JSON-encoded TaxSummary response. Primarily useful in a client.
func decodeHTTPTaxSummaryResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp struct {
		errorWrapper
		Taxes []ledger.TaxTotal `json:"taxes"`
	}
	if err := decodeHTTPResponse(r, &resp); err != nil {
		return nil, err
	}
	return endpoint.TaxSummaryResponse{Success: resp.Success, Taxes: resp.Taxes, Error: responseError(resp.errorWrapper)}, nil
}

func decodeHTTPResponse(r *http.Response, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if r.StatusCode != http.StatusOK {
			return errors.New(r.Status)
		}
		return err
	}
	return nil
}

func responseError(w errorWrapper) error {
	if w.Success || w.Error == "" {
		return nil
	}
	return str2err(w.Error)
}
