package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// fxRateAuto is the wire form of a live rate lookup.
const fxRateAuto = "auto"

// FxRateSource is either an explicit expense to host rate or a request
// to fetch the live one.
type FxRateSource struct {
	rate decimal.Decimal
	live bool
}

// ExplicitRate returns a source using rate as-is.
func ExplicitRate(rate decimal.Decimal) FxRateSource {
	return FxRateSource{rate: rate}
}

// LiveRate returns a source asking for the current market rate.
func LiveRate() FxRateSource {
	return FxRateSource{live: true}
}

// IsLive reports whether the rate has to be fetched.
func (s FxRateSource) IsLive() bool {
	return s.live
}

// Rate returns the explicit rate. It is zero for live sources.
func (s FxRateSource) Rate() decimal.Decimal {
	return s.rate
}

// Validate checks that an explicit rate is positive.
func (s FxRateSource) Validate() error {
	if !s.live && !s.rate.IsPositive() {
		return fmt.Errorf("%w: expense to host FX rate must be positive, got %s", ErrInvalidArgument, s.rate)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s FxRateSource) MarshalJSON() ([]byte, error) {
	if s.live {
		return json.Marshal(fxRateAuto)
	}
	return []byte(s.rate.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler. Accepts "auto", a number or a numeric string.
func (s *FxRateSource) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`"`+fxRateAuto+`"`)) {
		*s = LiveRate()
		return nil
	}
	var rate decimal.Decimal
	if err := rate.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: expenseToHostFxRate: %v", ErrInvalidArgument, err)
	}
	*s = ExplicitRate(rate)
	return nil
}

// FxRates holds the three rates derived for an expense.
type FxRates struct {
	ExpenseToHost       decimal.Decimal `json:"expenseToHost"`
	CollectiveToHost    decimal.Decimal `json:"collectiveToHost"`
	ExpenseToCollective decimal.Decimal `json:"expenseToCollective"`
}
