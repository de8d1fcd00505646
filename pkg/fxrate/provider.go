// Package fxrate provides FX rate lookups used to convert expense amounts to the host currency.
package fxrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

// Provider returns the rate converting one unit of from into to, as of at.
type Provider interface {
	GetRate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error)
}

// Static is a Provider backed by a fixed rate table keyed by "FROM/TO".
type Static map[string]decimal.Decimal

// GetRate implements Provider. Inverse pairs are derived from the table.
func (s Static) GetRate(_ context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := s[from+"/"+to]; ok {
		return rate, nil
	}
	if rate, ok := s[to+"/"+from]; ok && rate.IsPositive() {
		return decimal.NewFromInt(1).DivRound(rate, 8), nil
	}
	return decimal.Zero, fmt.Errorf("%w: no rate for %s/%s", ledger.ErrRateUnavailable, from, to)
}
