package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeesPayer tells who bears the payment processor fee of a paid expense.
type FeesPayer string

// Fees payers
const (
	FeesPayerCollective FeesPayer = "COLLECTIVE"
	FeesPayerPayee      FeesPayer = "PAYEE"
)

// TaxLine is a tax recorded on an expense. Rate is a fraction (0.12 for 12%).
type TaxLine struct {
	Type string          `json:"type"`
	Rate decimal.Decimal `json:"rate"`
}

// Collective represents the entity incurring the expense.
type Collective struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Host represents the fiscal sponsor disbursing funds for a collective.
type Host struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Expense represents a paid expense. Amount is in minor units of Currency.
type Expense struct {
	ID               int64       `json:"id"`
	Description      string      `json:"description"`
	Amount           int64       `json:"amount"`
	Currency         string      `json:"currency"`
	CollectiveID     int64       `json:"collectiveId"`
	Collective       *Collective `json:"collective,omitempty"`
	FromCollectiveID int64       `json:"fromCollectiveId"`
	PayoutMethodID   *int64      `json:"payoutMethodId,omitempty"`
	FeesPayer        FeesPayer   `json:"feesPayer,omitempty"`
	Taxes            []TaxLine   `json:"taxes,omitempty"`
	CreatedByUserID  int64       `json:"createdByUserId"`
}

// PaidByPayee reports whether the payee absorbs the payment processor fee.
func (e Expense) PaidByPayee() bool {
	return e.FeesPayer == FeesPayerPayee
}

// Fees are expressed in host currency minor units.
type Fees struct {
	PaymentProcessorFeeInHostCurrency int64 `json:"paymentProcessorFeeInHostCurrency"`
	HostFeeInHostCurrency             int64 `json:"hostFeeInHostCurrency"`
	PlatformFeeInHostCurrency         int64 `json:"platformFeeInHostCurrency"`
}

func (f Fees) validate() error {
	if f.PaymentProcessorFeeInHostCurrency < 0 || f.HostFeeInHostCurrency < 0 || f.PlatformFeeInHostCurrency < 0 {
		return ErrInvalidArgument
	}
	return nil
}

// Validate checks the fields every payment path relies on.
func (e Expense) Validate() error {
	if e.CollectiveID == 0 {
		return fmt.Errorf("%w: expense collective id is required", ErrInvalidArgument)
	}
	if e.Amount < 0 {
		return fmt.Errorf("%w: expense amount must not be negative", ErrInvalidArgument)
	}
	for _, tax := range e.Taxes {
		if tax.Rate.IsNegative() {
			return fmt.Errorf("%w: negative %s tax rate", ErrInvalidArgument, tax.Type)
		}
	}
	return nil
}
