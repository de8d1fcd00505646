package ledger

import "errors"

var (
	// ErrUnsupportedCurrencyCombination error fired when expense, collective and host currencies
	// can't be reconciled with a single FX rate
	ErrUnsupportedCurrencyCombination = errors.New("Multi-currency expenses are not supported for this currency combination")

	// ErrInvalidArgument - required argument missing or it is incorrect
	ErrInvalidArgument = errors.New("Invalid argument")

	// ErrRateUnavailable error fired when FX rate lookup fails
	ErrRateUnavailable = errors.New("FX rate unavailable")

	// ErrCollectiveNotFound error fired when expense collective can't be loaded
	ErrCollectiveNotFound = errors.New("Collective not found")
)
