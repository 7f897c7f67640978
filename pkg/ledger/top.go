package ledger

import (
	"cmp"
	"slices"

	"github.com/ArionMiles/spendview/pkg/api"
)

// TopN is the size of the main page transaction list.
const TopN = 5

// TopTransactions returns up to n transactions with the highest payment
// amount, highest first. Equal amounts keep their source order.
func TopTransactions(txns []api.Transaction, n int) []api.TopTransaction {
	ranked := slices.Clone(txns)
	slices.SortStableFunc(ranked, func(a, b api.Transaction) int {
		return cmp.Compare(b.PaymentAmount, a.PaymentAmount)
	})

	n = max(0, min(n, len(ranked)))
	top := make([]api.TopTransaction, 0, n)
	for _, t := range ranked[:n] {
		top = append(top, api.TopTransaction{
			Date:        t.OperationDate,
			Amount:      t.PaymentAmount,
			Category:    t.Category,
			Description: t.Description,
		})
	}
	return top
}
