package ledger

import "sort"

// TaxTotal aggregates the tax amounts of one tax id.
type TaxTotal struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Transactions int    `json:"transactions"`
}

// SummarizeTaxes groups tax amounts of taxed transactions by tax id, sorted by id.
func SummarizeTaxes(transactions []*Transaction) []TaxTotal {
	totals := make(map[string]*TaxTotal)
	for _, txn := range transactions {
		if txn == nil || txn.Data.Tax == nil || txn.TaxAmount == nil {
			continue
		}
		id := txn.Data.Tax.ID
		total, ok := totals[id]
		if !ok {
			total = &TaxTotal{ID: id}
			totals[id] = total
		}
		total.Amount += *txn.TaxAmount
		total.Transactions++
	}

	summary := make([]TaxTotal, 0, len(totals))
	for _, total := range totals {
		summary = append(summary, *total)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].ID < summary[j].ID })
	return summary
}
