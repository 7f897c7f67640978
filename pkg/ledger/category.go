package ledger

import (
	"fmt"
	"time"

	"github.com/ArionMiles/spendview/pkg/api"
)

// ReportMonths is the length of the category report window.
const ReportMonths = 3

// SpendingByCategory returns the expenses of exactly category (case
// sensitive) made in the three calendar months up to end, both bounds
// inclusive. The result keeps source order and is empty, never nil, when
// nothing matches.
func SpendingByCategory(txns []api.Transaction, category string, end time.Time) ([]api.Transaction, error) {
	start := SubtractMonths(end, ReportMonths)

	out := make([]api.Transaction, 0)
	for i, t := range txns {
		d, err := ParseRecordDate(t.OperationDate)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		if t.IsExpense() && t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}
