package ledger

import (
	"fmt"
	"time"

	"github.com/ArionMiles/spendview/pkg/api"
)

// MonthToDate selects the transactions between the first day of ts's month
// and ts itself, both inclusive. ts must match TimestampLayout.
func MonthToDate(txns []api.Transaction, ts string) ([]api.Transaction, error) {
	end, err := ParseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	return FilterWindow(txns, StartOfMonth(end), end)
}

// FilterWindow selects the transactions whose operation date lies in
// [start, end]. Source order is preserved. Any unparsable operation date
// fails the whole call.
func FilterWindow(txns []api.Transaction, start, end time.Time) ([]api.Transaction, error) {
	out := make([]api.Transaction, 0)
	for i, t := range txns {
		d, err := ParseRecordDate(t.OperationDate)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if !d.Before(start) && !d.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}
