package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
	"github.com/khaliullov/expense-ledger/pkg/repository/migrations"
)

var (
	// QueryCollective is a query for loading a collective by id
	QueryCollective = "SELECT id, name, currency FROM collective WHERE id = $1"

	// QueryInsert is a query for inserting a transaction row
	QueryInsert = "INSERT INTO ledger_transaction(" + transactionColumns + ") VALUES (" +
		"$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22) " +
		"RETURNING id, created_at"

	// QueryTransactions is a query for the rows where a collective is either side
	QueryTransactions = "SELECT id, created_at, " + transactionColumns +
		" FROM ledger_transaction WHERE collective_id = $1 OR from_collective_id = $1 ORDER BY id"

	// ErrTransactionFailed error fired when DB fails to write the double entry
	ErrTransactionFailed = errors.New("Transaction failed")
)

const transactionColumns = "transaction_group, type, kind, description, amount, currency, amount_in_host_currency, " +
	"host_currency, host_currency_fx_rate, net_amount_in_collective_currency, payment_processor_fee_in_host_currency, " +
	"host_fee_in_host_currency, platform_fee_in_host_currency, tax_amount, collective_id, from_collective_id, " +
	"host_collective_id, expense_id, payout_method_id, payment_method_id, created_by_user_id, data"

// Repository is the storage of collectives and ledger transactions.
type Repository interface {
	GetCollective(ctx context.Context, id int64) (*ledger.Collective, error)
	CreateDoubleEntry(ctx context.Context, debit *ledger.Transaction) (*ledger.DoubleEntry, error)
	GetTransactions(ctx context.Context, collectiveID int64) ([]*ledger.Transaction, error)
}

// New returns a Postgres Repository.
func New(db *sql.DB, logger log.Logger) Repository {
	return repository{
		db:     db,
		logger: log.With(logger, "repository", "ledgerdb"),
	}
}

// Migrate brings the database schema up to date.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

type repository struct {
	db     *sql.DB
	logger log.Logger
}

// GetCollective returns the collective with the given id.
func (r repository) GetCollective(ctx context.Context, id int64) (*ledger.Collective, error) {
	collective := &ledger.Collective{}
	err := r.db.QueryRowContext(ctx, QueryCollective, id).Scan(&collective.ID, &collective.Name, &collective.Currency)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ledger.ErrCollectiveNotFound, id)
	}
	if err != nil {
		_ = level.Error(r.logger).Log("method", "GetCollective", "id", id, "err", err)
		return nil, err
	}
	return collective, nil
}

// CreateDoubleEntry stores debit and its mirrored credit atomically.
func (r repository) CreateDoubleEntry(ctx context.Context, debit *ledger.Transaction) (entry *ledger.DoubleEntry, err error) {
	if debit == nil {
		return nil, ledger.ErrInvalidArgument
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil { // failed to start txn
		_ = level.Error(r.logger).Log("method", "CreateDoubleEntry", "err", err)
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
			_ = level.Error(r.logger).Log("method", "CreateDoubleEntry", "expense", debit.ExpenseID, "err", err)
		}
	}()

	first := *debit
	if first.TransactionGroup == uuid.Nil {
		first.TransactionGroup = uuid.New()
	}
	second := ledger.Mirror(first)

	for _, row := range []*ledger.Transaction{&first, &second} {
		if err = r.insertTransaction(ctx, txn, row); err != nil {
			return nil, err
		}
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	entry = &ledger.DoubleEntry{Debit: &first, Credit: &second}
	if first.Type == ledger.TransactionTypeCredit {
		entry = &ledger.DoubleEntry{Debit: &second, Credit: &first}
	}
	return entry, nil
}

// GetTransactions returns the transaction history of a collective.
func (r repository) GetTransactions(ctx context.Context, collectiveID int64) ([]*ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, QueryTransactions, collectiveID)
	if err != nil {
		_ = level.Error(r.logger).Log("method", "GetTransactions", "err", err)
		return nil, err
	}
	defer rows.Close()

	var transactions = make([]*ledger.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			_ = level.Error(r.logger).Log("method", "GetTransactions", "err", err)
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err = rows.Err(); err != nil {
		_ = level.Error(r.logger).Log("method", "GetTransactions", "err", err)
		return nil, err
	}
	return transactions, nil
}

func (r repository) insertTransaction(ctx context.Context, txn *sql.Tx, row *ledger.Transaction) error {
	args, err := transactionArgs(row)
	if err != nil {
		return err
	}
	return txn.QueryRowContext(ctx, QueryInsert, args...).Scan(&row.ID, &row.CreatedAt)
}
