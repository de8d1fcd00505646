package inmem

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

func TestRepositoryInmem(t *testing.T) {
	repo := NewInmem().(*RepositoryInmem)
	repo.InsertCollective(&ledger.Collective{ID: 1, Name: "Babel", Currency: "USD"})
	ctx := context.Background()

	collective, err := repo.GetCollective(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "USD", collective.Currency)

	_, err = repo.GetCollective(ctx, 2)
	assert.ErrorIs(t, err, ledger.ErrCollectiveNotFound)

	entry, err := repo.CreateDoubleEntry(ctx, &ledger.Transaction{
		Type:                          ledger.TransactionTypeDebit,
		Amount:                        -1000,
		NetAmountInCollectiveCurrency: -1050,
		HostCurrencyFxRate:            decimal.NewFromInt(1),
		CollectiveID:                  1,
		FromCollectiveID:              7,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.Debit.TransactionGroup)
	assert.Equal(t, entry.Debit.TransactionGroup, entry.Credit.TransactionGroup)
	assert.Equal(t, int64(1), entry.Debit.ID)
	assert.Equal(t, int64(2), entry.Credit.ID)
	assert.Equal(t, int64(1050), entry.Credit.Amount)

	history, err := repo.GetTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = repo.GetTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, history)

	repo.WriteErr = errors.New("disk full")
	_, err = repo.CreateDoubleEntry(ctx, &ledger.Transaction{CollectiveID: 1})
	assert.EqualError(t, err, "disk full")

	repo.FlushStore()
	history, err = repo.GetTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}
