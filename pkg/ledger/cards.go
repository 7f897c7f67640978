package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/spendview/pkg/api"
)

// cashbackRate is one unit of cashback per hundred spent.
var cashbackRate = decimal.NewFromInt(100)

// SummarizeCards totals the expenses of each card. Cards appear in the order
// their first expense appears; cards without expenses, and expenses without a
// card number or a finite amount, are left out.
func SummarizeCards(txns []api.Transaction) []api.CardSummary {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range txns {
		if !t.IsExpense() || t.CardNumber == "" || !finite(t.OperationAmount) {
			continue
		}
		if _, seen := totals[t.CardNumber]; !seen {
			order = append(order, t.CardNumber)
		}
		totals[t.CardNumber] = totals[t.CardNumber].Add(decimal.NewFromFloat(t.OperationAmount))
	}

	cards := make([]api.CardSummary, 0, len(order))
	for _, card := range order {
		spent := totals[card].Abs()
		cards = append(cards, api.CardSummary{
			LastDigits: LastDigits(card),
			TotalSpent: spent.InexactFloat64(),
			Cashback:   Cashback(spent),
		})
	}
	return cards
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Cashback is spent/100 rounded half away from zero to two places.
func Cashback(spent decimal.Decimal) float64 {
	return spent.Div(cashbackRate).Round(2).InexactFloat64()
}

// LastDigits returns the final four characters of a card identifier, or the
// whole identifier when it is shorter.
func LastDigits(card string) string {
	r := []rune(card)
	if len(r) <= 4 {
		return card
	}
	return string(r[len(r)-4:])
}
