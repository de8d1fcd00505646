package ledger

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror(t *testing.T) {
	tax := int64(-200)
	debit := Transaction{
		ID:                                42,
		TransactionGroup:                  uuid.New(),
		Type:                              TransactionTypeDebit,
		Kind:                              TransactionKindExpense,
		Amount:                            -10000,
		Currency:                          "EUR",
		AmountInHostCurrency:              -11000,
		HostCurrency:                      "USD",
		HostCurrencyFxRate:                decimal.RequireFromString("1.1"),
		NetAmountInCollectiveCurrency:     -10300,
		PaymentProcessorFeeInHostCurrency: -330,
		TaxAmount:                         &tax,
		CollectiveID:                      10,
		FromCollectiveID:                  20,
		Data:                              TransactionData{FeesPayer: FeesPayerPayee},
	}

	credit := Mirror(debit)
	assert.Equal(t, int64(0), credit.ID)
	assert.Equal(t, TransactionTypeCredit, credit.Type)
	assert.Equal(t, debit.TransactionGroup, credit.TransactionGroup)
	assert.Equal(t, int64(20), credit.CollectiveID)
	assert.Equal(t, int64(10), credit.FromCollectiveID)
	assert.Equal(t, int64(10300), credit.Amount)
	assert.Equal(t, int64(10000), credit.NetAmountInCollectiveCurrency)
	assert.Equal(t, int64(11330), credit.AmountInHostCurrency)
	assert.Equal(t, debit.PaymentProcessorFeeInHostCurrency, credit.PaymentProcessorFeeInHostCurrency)
	assert.Equal(t, FeesPayerPayee, credit.Data.FeesPayer)

	// balanced
	assert.Zero(t, debit.Amount+credit.NetAmountInCollectiveCurrency)
	assert.Zero(t, debit.NetAmountInCollectiveCurrency+credit.Amount)

	// no shared state with the debit
	*credit.TaxAmount = 0
	assert.Equal(t, int64(-200), *debit.TaxAmount)
}

func TestTransactionDataIsNotMutated(t *testing.T) {
	base := TransactionData{Custom: map[string]string{"batch": "7"}}

	data := base.
		WithExpenseToHostFxRate(decimal.RequireFromString("1.25")).
		WithTax(&TaxInfo{ID: "VAT", Type: "VAT", Rate: decimal.RequireFromString("0.2"), Percentage: 20}).
		WithFeesPayer(FeesPayerPayee).
		AsManual()
	data.Custom["batch"] = "8"

	assert.Nil(t, base.ExpenseToHostFxRate)
	assert.Nil(t, base.Tax)
	assert.Empty(t, base.FeesPayer)
	assert.False(t, base.IsManual)
	assert.Equal(t, "7", base.Custom["batch"])

	assert.Equal(t, "1.25", data.ExpenseToHostFxRate.String())
	assert.Equal(t, "VAT", data.Tax.ID)
	assert.Equal(t, FeesPayerPayee, data.FeesPayer)
	assert.True(t, data.IsManual)
}

func TestTransactionDataOmitsUnsetFields(t *testing.T) {
	raw, err := json.Marshal(TransactionData{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = json.Marshal(TransactionData{}.AsManual().WithFeesPayer(FeesPayerPayee))
	require.NoError(t, err)
	assert.JSONEq(t, `{"isManual": true, "feesPayer": "PAYEE"}`, string(raw))
}

func TestFxRateSourceJSON(t *testing.T) {
	var payload struct {
		Rate FxRateSource `json:"expenseToHostFxRate"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"expenseToHostFxRate": "auto"}`), &payload))
	assert.True(t, payload.Rate.IsLive())
	assert.NoError(t, payload.Rate.Validate())

	require.NoError(t, json.Unmarshal([]byte(`{"expenseToHostFxRate": 1.0837}`), &payload))
	assert.False(t, payload.Rate.IsLive())
	assert.Equal(t, "1.0837", payload.Rate.Rate().String())

	require.NoError(t, json.Unmarshal([]byte(`{"expenseToHostFxRate": "0"}`), &payload))
	assert.ErrorIs(t, payload.Rate.Validate(), ErrInvalidArgument)

	err := json.Unmarshal([]byte(`{"expenseToHostFxRate": "soon"}`), &payload)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	raw, err := json.Marshal(LiveRate())
	require.NoError(t, err)
	assert.Equal(t, `"auto"`, string(raw))

	raw, err = json.Marshal(ExplicitRate(decimal.RequireFromString("1.5")))
	require.NoError(t, err)
	assert.Equal(t, `1.5`, string(raw))
}

func TestSummarizeTaxes(t *testing.T) {
	vat := &TaxInfo{ID: "VAT", Type: "VAT"}
	gst := &TaxInfo{ID: "GST", Type: "GST"}
	amount := func(v int64) *int64 { return &v }

	summary := SummarizeTaxes([]*Transaction{
		{TaxAmount: amount(-200), Data: TransactionData{Tax: vat}},
		{TaxAmount: amount(-50), Data: TransactionData{Tax: gst}},
		{TaxAmount: amount(-100), Data: TransactionData{Tax: vat}},
		{Data: TransactionData{}},
		nil,
	})

	assert.Equal(t, []TaxTotal{
		{ID: "GST", Amount: -50, Transactions: 1},
		{ID: "VAT", Amount: -300, Transactions: 2},
	}, summary)
	assert.Empty(t, SummarizeTaxes(nil))
}
