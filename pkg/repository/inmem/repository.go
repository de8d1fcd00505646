package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
	"github.com/khaliullov/expense-ledger/pkg/repository"
)

// NewInmem returns an inmem ledger Repository.
func NewInmem() repository.Repository {
	return &RepositoryInmem{
		Collectives:  make([]*ledger.Collective, 0),
		Transactions: make([]*ledger.Transaction, 0),
		coMutex:      new(sync.RWMutex),
		txMutex:      new(sync.RWMutex),
	}
}

// RepositoryInmem keeps collectives and transactions in memory.
type RepositoryInmem struct {
	Collectives  []*ledger.Collective
	Transactions []*ledger.Transaction
	// WriteErr, when set, is returned by CreateDoubleEntry instead of storing anything.
	WriteErr error
	coMutex  *sync.RWMutex
	txMutex  *sync.RWMutex
	lastID   int64
}

// GetCollective returns a copy of the stored collective.
func (ir *RepositoryInmem) GetCollective(_ context.Context, id int64) (*ledger.Collective, error) {
	ir.coMutex.RLock()
	defer ir.coMutex.RUnlock()
	for _, collective := range ir.Collectives {
		if collective.ID == id {
			c := *collective
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ledger.ErrCollectiveNotFound, id)
}

// CreateDoubleEntry stores debit and its mirrored credit.
func (ir *RepositoryInmem) CreateDoubleEntry(_ context.Context, debit *ledger.Transaction) (*ledger.DoubleEntry, error) {
	if debit == nil {
		return nil, ledger.ErrInvalidArgument
	}
	ir.txMutex.Lock()
	defer ir.txMutex.Unlock()
	if ir.WriteErr != nil {
		return nil, ir.WriteErr
	}

	first := *debit
	if first.TransactionGroup == uuid.Nil {
		first.TransactionGroup = uuid.New()
	}
	second := ledger.Mirror(first)
	now := time.Now().UTC()
	for _, row := range []*ledger.Transaction{&first, &second} {
		ir.lastID++
		row.ID = ir.lastID
		row.CreatedAt = now
		stored := *row
		ir.Transactions = append(ir.Transactions, &stored)
	}
	return &ledger.DoubleEntry{Debit: &first, Credit: &second}, nil
}

// GetTransactions returns the rows where the collective is either side.
func (ir *RepositoryInmem) GetTransactions(_ context.Context, collectiveID int64) ([]*ledger.Transaction, error) {
	ir.txMutex.RLock()
	defer ir.txMutex.RUnlock()
	transactions := make([]*ledger.Transaction, 0)
	for _, txn := range ir.Transactions {
		if txn.CollectiveID == collectiveID || txn.FromCollectiveID == collectiveID {
			t := *txn
			transactions = append(transactions, &t)
		}
	}
	return transactions, nil
}

// FlushStore - reset store (flush/purge all data)
func (ir *RepositoryInmem) FlushStore() {
	ir.coMutex.Lock()
	ir.txMutex.Lock()
	defer func() {
		ir.coMutex.Unlock()
		ir.txMutex.Unlock()
	}()
	ir.Collectives = ir.Collectives[:0]
	ir.Transactions = ir.Transactions[:0]
	ir.WriteErr = nil
	ir.lastID = 0
}

// InsertCollective - inserts collective into store
func (ir *RepositoryInmem) InsertCollective(collective *ledger.Collective) {
	ir.coMutex.Lock()
	defer ir.coMutex.Unlock()
	ir.Collectives = append(ir.Collectives, collective)
}
