package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

// RatePath is the path of the rate lookup on the FX service.
const RatePath = "/v1/rates"

// NewHTTPProvider returns a Provider querying the FX service at instance.
// Lookups go through a circuit breaker so an unavailable FX service fails fast.
func NewHTTPProvider(instance string, logger log.Logger) (Provider, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}
	u.Path = RatePath

	var rateEndpoint ep.Endpoint
	{
		rateEndpoint = httptransport.NewClient(
			http.MethodGet,
			u,
			encodeHTTPRateRequest,
			decodeHTTPRateResponse,
		).Endpoint()
		rateEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "fxrate",
			Timeout: 30 * time.Second,
		}))(rateEndpoint)
	}

	return httpProvider{
		rateEndpoint: rateEndpoint,
		logger:       log.With(logger, "component", "fxrate"),
	}, nil
}

type httpProvider struct {
	rateEndpoint ep.Endpoint
	logger       log.Logger
}

// GetRate implements Provider.
func (p httpProvider) GetRate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), nil
	}
	resp, err := p.rateEndpoint(ctx, rateRequest{From: from, To: to, At: at})
	if err != nil {
		_ = level.Warn(p.logger).Log("method", "GetRate", "from", from, "to", to, "err", err)
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", ledger.ErrRateUnavailable, from, to, err)
	}
	rate := resp.(rateResponse).Rate
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: non-positive rate %s", ledger.ErrRateUnavailable, from, to, rate)
	}
	return rate, nil
}

type rateRequest struct {
	From, To string
	At       time.Time
}

type rateResponse struct {
	Rate  decimal.Decimal `json:"rate"`
	Error string          `json:"error,omitempty"`
}

// encodeHTTPRateRequest is a transport/http.EncodeRequestFunc that puts the
// currency pair and date into the query string.
func encodeHTTPRateRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(rateRequest)
	q := r.URL.Query()
	q.Set("from", strings.ToUpper(req.From))
	q.Set("to", strings.ToUpper(req.To))
	q.Set("date", req.At.UTC().Format(time.RFC3339))
	r.URL.RawQuery = q.Encode()
	return nil
}

// decodeHTTPRateResponse is a transport/http.DecodeResponseFunc that decodes a
// JSON-encoded rate from the FX service response body.
func decodeHTTPRateResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp rateResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil && r.StatusCode == http.StatusOK {
		return nil, err
	}
	if r.StatusCode != http.StatusOK {
		if resp.Error != "" {
			return nil, fmt.Errorf("fx service: %s", resp.Error)
		}
		return nil, fmt.Errorf("fx service: %s", r.Status)
	}
	return resp, nil
}
