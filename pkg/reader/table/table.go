// Package table decodes bank-export rows (a header row followed by data rows)
// into transactions. Every tabular source shares it.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ArionMiles/spendview/pkg/api"
)

// ErrInvalidAmount is returned when a numeric cell cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Column names of the bank export.
const (
	ColOperationDate     = "Дата операции"
	ColPaymentDate       = "Дата платежа"
	ColCardNumber        = "Номер карты"
	ColStatus            = "Статус"
	ColOperationAmount   = "Сумма операции"
	ColOperationCurrency = "Валюта операции"
	ColPaymentAmount     = "Сумма платежа"
	ColPaymentCurrency   = "Валюта платежа"
	ColCashback          = "Кэшбэк"
	ColCategory          = "Категория"
	ColMCC               = "MCC"
	ColDescription       = "Описание"
	ColBonuses           = "Бонусы (включая кэшбэк)"
	ColInvestRounding    = "Округление на инвесткопилку"
	ColRoundedAmount     = "Сумма операции с округлением"
)

// Header is the full column set in export order.
var Header = []string{
	ColOperationDate,
	ColPaymentDate,
	ColCardNumber,
	ColStatus,
	ColOperationAmount,
	ColOperationCurrency,
	ColPaymentAmount,
	ColPaymentCurrency,
	ColCashback,
	ColCategory,
	ColMCC,
	ColDescription,
	ColBonuses,
	ColInvestRounding,
	ColRoundedAmount,
}

// Required lists the columns every ledger must carry.
var Required = []string{
	ColOperationDate,
	ColCardNumber,
	ColOperationAmount,
	ColPaymentAmount,
	ColCategory,
	ColDescription,
}

// Decode converts rows into transactions. rows[0] must be the header.
// Blank rows are skipped.
func Decode(rows [][]string) ([]api.Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty ledger, no header row: %w", api.ErrMissingColumn)
	}

	cols := indexHeader(rows[0])
	if missing := missingColumns(cols); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", api.ErrMissingColumn, strings.Join(missing, ", "))
	}

	txns := make([]api.Transaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t, err := decodeRow(cols, row)
		if err != nil {
			// i+2: 1-based line numbers plus the header row
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// DecodeValues is Decode for loosely typed cells, as returned by the Sheets API.
func DecodeValues(values [][]any) ([]api.Transaction, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return Decode(rows)
}

// Encode renders a transaction as a row matching Header.
func Encode(t api.Transaction) []string {
	return []string{
		t.OperationDate,
		t.PaymentDate,
		t.CardNumber,
		t.Status,
		formatFloat(t.OperationAmount),
		t.OperationCurrency,
		formatFloat(t.PaymentAmount),
		t.PaymentCurrency,
		formatOptional(t.Cashback),
		t.Category,
		formatOptional(t.MCC),
		t.Description,
		formatFloat(t.Bonuses),
		formatFloat(t.InvestRounding),
		formatFloat(t.RoundedAmount),
	}
}

func decodeRow(cols map[string]int, row []string) (api.Transaction, error) {
	get := func(col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	t := api.Transaction{
		OperationDate:     get(ColOperationDate),
		PaymentDate:       get(ColPaymentDate),
		CardNumber:        get(ColCardNumber),
		Status:            get(ColStatus),
		OperationCurrency: get(ColOperationCurrency),
		PaymentCurrency:   get(ColPaymentCurrency),
		Category:          get(ColCategory),
		Description:       get(ColDescription),
	}

	var err error
	if t.OperationAmount, err = ParseAmount(get(ColOperationAmount)); err != nil {
		return api.Transaction{}, fmt.Errorf("%s: %w", ColOperationAmount, err)
	}
	if t.PaymentAmount, err = ParseAmount(get(ColPaymentAmount)); err != nil {
		return api.Transaction{}, fmt.Errorf("%s: %w", ColPaymentAmount, err)
	}
	if t.Cashback, err = parseOptional(get(ColCashback)); err != nil {
		return api.Transaction{}, fmt.Errorf("%s: %w", ColCashback, err)
	}
	if t.MCC, err = parseOptional(get(ColMCC)); err != nil {
		return api.Transaction{}, fmt.Errorf("%s: %w", ColMCC, err)
	}

	optional := []struct {
		col string
		dst *float64
	}{
		{ColBonuses, &t.Bonuses},
		{ColInvestRounding, &t.InvestRounding},
		{ColRoundedAmount, &t.RoundedAmount},
	}
	for _, o := range optional {
		v, err := parseOptional(get(o.col))
		if err != nil {
			return api.Transaction{}, fmt.Errorf("%s: %w", o.col, err)
		}
		if v != nil {
			*o.dst = *v
		}
	}

	return t, nil
}

// ParseAmount parses a signed decimal that may use a comma separator and
// spaces as thousands separators ("-1 234,56").
func ParseAmount(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func missingColumns(cols map[string]int) []string {
	var missing []string
	for _, c := range Required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = x
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
