// Package api defines the core interfaces and data structures for spendview.
package api

import (
	"context"
	"errors"
)

var (
	// ErrMissingColumn is returned when a ledger lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMissingSetting is returned when the user settings lack a required key.
	ErrMissingSetting = errors.New("missing required setting")
	// ErrInvalidSetting is returned when a user setting has the wrong type.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrSourceNotFound is returned when the ledger location does not exist.
	ErrSourceNotFound = errors.New("ledger source not found")
)

// Transaction is one row of a bank export. JSON keys are the export's column
// names so reports keep the bank export shape.
type Transaction struct {
	// OperationDate is kept as text ("02.01.2006 15:04:05") and parsed on demand.
	OperationDate     string   `json:"Дата операции"`
	PaymentDate       string   `json:"Дата платежа"`
	CardNumber        string   `json:"Номер карты"`
	Status            string   `json:"Статус"`
	OperationAmount   float64  `json:"Сумма операции"`
	OperationCurrency string   `json:"Валюта операции"`
	PaymentAmount     float64  `json:"Сумма платежа"`
	PaymentCurrency   string   `json:"Валюта платежа"`
	Cashback          *float64 `json:"Кэшбэк"`
	Category          string   `json:"Категория"`
	MCC               *float64 `json:"MCC"`
	Description       string   `json:"Описание"`
	Bonuses           float64  `json:"Бонусы (включая кэшбэк)"`
	InvestRounding    float64  `json:"Округление на инвесткопилку"`
	RoundedAmount     float64  `json:"Сумма операции с округлением"`
}

// IsExpense reports whether the operation took money off the card.
func (t Transaction) IsExpense() bool {
	return t.OperationAmount < 0
}

// CardSummary is the month-to-date spend of a single card.
type CardSummary struct {
	LastDigits string  `json:"last_digits"`
	TotalSpent float64 `json:"total_spent"`
	Cashback   float64 `json:"cashback"`
}

// TopTransaction is one entry of the top-N list on the main page.
type TopTransaction struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// CurrencyRate is the RUB rate of a currency.
type CurrencyRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// StockPrice is the last quoted price of a stock.
type StockPrice struct {
	Stock string  `json:"stock"`
	Price float64 `json:"price"`
}

// ReportEnvelope is the main page response.
type ReportEnvelope struct {
	Greeting        string           `json:"greeting"`
	Cards           []CardSummary    `json:"cards"`
	TopTransactions []TopTransaction `json:"top_transactions"`
	CurrencyRates   []CurrencyRate   `json:"currency_rates"`
	StockPrices     []StockPrice     `json:"stock_prices"`
}

// UserSettings lists the currencies and stocks shown on the main page.
type UserSettings struct {
	Currencies []string `json:"user_currencies" koanf:"user_currencies"`
	Stocks     []string `json:"user_stocks" koanf:"user_stocks"`
}

// Source loads the full, ordered ledger from wherever it lives.
type Source interface {
	Transactions(ctx context.Context) ([]Transaction, error)
}

// SettingsProvider loads the user's main page preferences.
type SettingsProvider interface {
	UserSettings(ctx context.Context) (UserSettings, error)
}

// RateProvider looks up market data from an external service.
type RateProvider interface {
	// CurrencyRate returns how many RUB one unit of currency costs.
	CurrencyRate(ctx context.Context, currency string) (float64, error)
	// StockPrice returns the last price of symbol rounded to two decimals.
	StockPrice(ctx context.Context, symbol string) (float64, error)
}

// ReportWriter persists a computed report under the given name.
type ReportWriter interface {
	WriteReport(ctx context.Context, name string, report any) error
}
