package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/khaliullov/expense-ledger/pkg/ledger"
)

// transactionArgs returns the insert arguments of row, in transactionColumns order.
func transactionArgs(row *ledger.Transaction) ([]interface{}, error) {
	data, err := json.Marshal(row.Data)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		row.TransactionGroup,
		string(row.Type),
		string(row.Kind),
		row.Description,
		row.Amount,
		row.Currency,
		row.AmountInHostCurrency,
		row.HostCurrency,
		row.HostCurrencyFxRate,
		row.NetAmountInCollectiveCurrency,
		row.PaymentProcessorFeeInHostCurrency,
		row.HostFeeInHostCurrency,
		row.PlatformFeeInHostCurrency,
		nullInt64(row.TaxAmount),
		row.CollectiveID,
		row.FromCollectiveID,
		row.HostCollectiveID,
		row.ExpenseID,
		nullInt64(row.PayoutMethodID),
		nullInt64(row.PaymentMethodID),
		row.CreatedByUserID,
		string(data),
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var (
		txn                                  = &ledger.Transaction{}
		txnType, kind                        string
		taxAmount, payoutMethod, paymentMeth sql.NullInt64
		data                                 []byte
	)
	err := s.Scan(&txn.ID, &txn.CreatedAt,
		&txn.TransactionGroup, &txnType, &kind, &txn.Description,
		&txn.Amount, &txn.Currency, &txn.AmountInHostCurrency, &txn.HostCurrency, &txn.HostCurrencyFxRate,
		&txn.NetAmountInCollectiveCurrency, &txn.PaymentProcessorFeeInHostCurrency, &txn.HostFeeInHostCurrency,
		&txn.PlatformFeeInHostCurrency, &taxAmount, &txn.CollectiveID, &txn.FromCollectiveID, &txn.HostCollectiveID,
		&txn.ExpenseID, &payoutMethod, &paymentMeth, &txn.CreatedByUserID, &data)
	if err != nil {
		return nil, err
	}
	txn.Type = ledger.TransactionType(txnType)
	txn.Kind = ledger.TransactionKind(kind)
	txn.TaxAmount = int64Ptr(taxAmount)
	txn.PayoutMethodID = int64Ptr(payoutMethod)
	txn.PaymentMethodID = int64Ptr(paymentMeth)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &txn.Data); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
