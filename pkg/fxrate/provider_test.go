package fxrate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/kit/log"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

func TestStatic(t *testing.T) {
	rates := Static{"EUR/USD": decimal.RequireFromString("1.25")}
	ctx := context.Background()

	rate, err := rates.GetRate(ctx, "eur", "usd", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.25", rate.String())

	rate, err = rates.GetRate(ctx, "USD", "EUR", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.8", rate.String())

	rate, err = rates.GetRate(ctx, "GBP", "GBP", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1", rate.String())

	_, err = rates.GetRate(ctx, "GBP", "USD", time.Now())
	assert.ErrorIs(t, err, ledger.ErrRateUnavailable)
}

func TestHTTPProvider(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RatePath, r.URL.Path)
		assert.Equal(t, at.Format(time.RFC3339), r.URL.Query().Get("date"))
		if r.URL.Query().Get("from") == "EUR" && r.URL.Query().Get("to") == "USD" {
			_ = json.NewEncoder(w).Encode(map[string]string{"rate": "1.0837"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown pair"})
	}))
	defer server.Close()

	provider, err := NewHTTPProvider(server.URL, log.NewNopLogger())
	require.NoError(t, err)

	rate, err := provider.GetRate(context.Background(), "eur", "usd", at)
	require.NoError(t, err)
	assert.Equal(t, "1.0837", rate.String())

	_, err = provider.GetRate(context.Background(), "XAU", "USD", at)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrRateUnavailable)
	assert.Contains(t, err.Error(), "unknown pair")

	rate, err = provider.GetRate(context.Background(), "USD", "usd", at)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestHTTPProviderOpensCircuit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, err := NewHTTPProvider(server.URL, log.NewNopLogger())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = provider.GetRate(context.Background(), "EUR", "USD", time.Now())
		assert.ErrorIs(t, err, ledger.ErrRateUnavailable)
	}
	// the breaker trips after more than five consecutive failures
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

type countingProvider struct {
	calls int
	rate  decimal.Decimal
	err   error
}

func (p *countingProvider) GetRate(context.Context, string, string, time.Time) (decimal.Decimal, error) {
	p.calls++
	return p.rate, p.err
}

func TestCachedProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	next := &countingProvider{rate: decimal.RequireFromString("1.0837")}
	provider := NewCachedProvider(next, client, time.Minute, log.NewNopLogger())

	at := time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC)
	rate, err := provider.GetRate(context.Background(), "EUR", "USD", at)
	require.NoError(t, err)
	assert.Equal(t, "1.0837", rate.String())

	rate, err = provider.GetRate(context.Background(), "eur", "usd", at.Add(20*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "1.0837", rate.String())
	assert.Equal(t, 1, next.calls)

	_, err = provider.GetRate(context.Background(), "EUR", "USD", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedProviderFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	next := &countingProvider{err: ledger.ErrRateUnavailable}
	provider := NewCachedProvider(next, client, time.Minute, log.NewNopLogger())

	_, err := provider.GetRate(context.Background(), "EUR", "USD", time.Now())
	assert.ErrorIs(t, err, ledger.ErrRateUnavailable)
	assert.False(t, mr.Exists("fxrate:EUR:USD:"+time.Now().UTC().Truncate(time.Minute).Format(time.RFC3339)))

	// redis down: rates are still served by next
	mr.Close()
	next.err = nil
	next.rate = decimal.RequireFromString("1.1")
	rate, err := provider.GetRate(context.Background(), "EUR", "USD", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.1", rate.String())
}
