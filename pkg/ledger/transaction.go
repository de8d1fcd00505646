package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the side of a double-entry row.
type TransactionType string

// Transaction types
const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// Opposite returns the other side of the entry.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeDebit {
		return TransactionTypeCredit
	}
	return TransactionTypeDebit
}

// TransactionKind classifies the economic event behind a transaction.
type TransactionKind string

// TransactionKindExpense is the kind of transactions recording paid expenses.
const TransactionKindExpense TransactionKind = "EXPENSE"

// TransactionData is the payload stored alongside a transaction.
// Fields are only serialized when set.
type TransactionData struct {
	ExpenseToHostFxRate *decimal.Decimal  `json:"expenseToHostFxRate,omitempty"`
	Tax                 *TaxInfo          `json:"tax,omitempty"`
	FeesPayer           FeesPayer         `json:"feesPayer,omitempty"`
	IsManual            bool              `json:"isManual,omitempty"`
	Custom              map[string]string `json:"custom,omitempty"`
}

// Clone returns a deep copy of d.
func (d TransactionData) Clone() TransactionData {
	out := d
	if d.ExpenseToHostFxRate != nil {
		rate := *d.ExpenseToHostFxRate
		out.ExpenseToHostFxRate = &rate
	}
	if d.Tax != nil {
		tax := *d.Tax
		out.Tax = &tax
	}
	if d.Custom != nil {
		out.Custom = make(map[string]string, len(d.Custom))
		for k, v := range d.Custom {
			out.Custom[k] = v
		}
	}
	return out
}

// WithExpenseToHostFxRate returns a copy of d carrying rate.
func (d TransactionData) WithExpenseToHostFxRate(rate decimal.Decimal) TransactionData {
	out := d.Clone()
	out.ExpenseToHostFxRate = &rate
	return out
}

// WithTax returns a copy of d carrying tax. A nil tax leaves d untouched.
func (d TransactionData) WithTax(tax *TaxInfo) TransactionData {
	out := d.Clone()
	if tax != nil {
		t := *tax
		out.Tax = &t
	}
	return out
}

// WithFeesPayer returns a copy of d carrying payer.
func (d TransactionData) WithFeesPayer(payer FeesPayer) TransactionData {
	out := d.Clone()
	out.FeesPayer = payer
	return out
}

// AsManual returns a copy of d flagged as a manually recorded payment.
func (d TransactionData) AsManual() TransactionData {
	out := d.Clone()
	out.IsManual = true
	return out
}

// Transaction represents a ledger row. Outflows are negative.
type Transaction struct {
	ID               int64           `json:"id"`
	TransactionGroup uuid.UUID       `json:"transactionGroup"`
	Type             TransactionType `json:"type"`
	Kind             TransactionKind `json:"kind"`
	Description      string          `json:"description"`

	Amount                        int64           `json:"amount"`
	Currency                      string          `json:"currency"`
	AmountInHostCurrency          int64           `json:"amountInHostCurrency"`
	HostCurrency                  string          `json:"hostCurrency"`
	HostCurrencyFxRate            decimal.Decimal `json:"hostCurrencyFxRate"`
	NetAmountInCollectiveCurrency int64           `json:"netAmountInCollectiveCurrency"`

	PaymentProcessorFeeInHostCurrency int64  `json:"paymentProcessorFeeInHostCurrency"`
	HostFeeInHostCurrency             int64  `json:"hostFeeInHostCurrency"`
	PlatformFeeInHostCurrency         int64  `json:"platformFeeInHostCurrency"`
	TaxAmount                         *int64 `json:"taxAmount"`

	CollectiveID     int64  `json:"collectiveId"`
	FromCollectiveID int64  `json:"fromCollectiveId"`
	HostCollectiveID int64  `json:"hostCollectiveId"`
	ExpenseID        int64  `json:"expenseId"`
	PayoutMethodID   *int64 `json:"payoutMethodId,omitempty"`
	PaymentMethodID  *int64 `json:"paymentMethodId,omitempty"`
	CreatedByUserID  int64  `json:"createdByUserId"`

	Data      TransactionData `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DoubleEntry is a balanced pair of rows recorded for one event.
type DoubleEntry struct {
	Debit  *Transaction `json:"debit"`
	Credit *Transaction `json:"credit"`
}

// Mirror returns the opposite-signed counterpart of t, seen from the other party.
func Mirror(t Transaction) Transaction {
	out := t
	out.ID = 0
	out.Type = t.Type.Opposite()
	out.CollectiveID = t.FromCollectiveID
	out.FromCollectiveID = t.CollectiveID
	out.Amount = -t.NetAmountInCollectiveCurrency
	out.NetAmountInCollectiveCurrency = -t.Amount
	out.AmountInHostCurrency = Round(decimal.NewFromInt(out.Amount).Mul(t.HostCurrencyFxRate))
	out.Data = t.Data.Clone()
	if t.TaxAmount != nil {
		tax := *t.TaxAmount
		out.TaxAmount = &tax
	}
	return out
}
