// Package orchestrator assembles the ledger views into the reports served by
// spendview. It loads data through the api interfaces, runs the ledger
// engine and merges in settings and market data.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/ledger"
	"github.com/ArionMiles/spendview/pkg/rates"
)

// ReportIndent is the indentation of JSON reports.
const ReportIndent = "    "

// Config tunes a Reporter.
type Config struct {
	// Concurrency bounds parallel rate lookups. Zero means unbounded.
	Concurrency int
	// Now is the clock used for the greeting and the default report date.
	// Defaults to time.Now.
	Now func() time.Time
}

// Reporter produces the main page, category and transfer reports.
type Reporter struct {
	source      api.Source
	settings    api.SettingsProvider
	rates       api.RateProvider
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a Reporter. All three dependencies are required.
func New(source api.Source, settings api.SettingsProvider, rp api.RateProvider, cfg Config, logger *slog.Logger) (*Reporter, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if settings == nil {
		return nil, errors.New("settings provider is required")
	}
	if rp == nil {
		return nil, errors.New("rate provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Reporter{
		source:      source,
		settings:    settings,
		rates:       rp,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
		logger:      logger.With("component", "reporter"),
	}, nil
}

// Greeting returns the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 10:
		return "Доброе утро"
	case h >= 10 && h < 18:
		return "Добрый день"
	case h >= 18 && h < 22:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}

// MainPage builds the main page for the month ending at ts
// ("YYYY-MM-DD HH:MM:SS"). Any failing step fails the whole page.
func (r *Reporter) MainPage(ctx context.Context, ts string) (*api.ReportEnvelope, error) {
	logger := r.runLogger("main_page")
	start := time.Now()

	if _, err := ledger.ParseTimestamp(ts); err != nil {
		return nil, err
	}

	txns, err := r.load(ctx, logger)
	if err != nil {
		return nil, err
	}

	window, err := ledger.MonthToDate(txns, ts)
	if err != nil {
		return nil, fmt.Errorf("filtering month to date: %w", err)
	}
	logger.Debug("month to date window", "timestamp", ts, "transactions", len(window))

	settings, err := r.settings.UserSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading user settings: %w", err)
	}

	currencyRates, err := rates.CurrencyRates(ctx, r.rates, settings.Currencies, r.concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetching currency rates: %w", err)
	}
	stockPrices, err := rates.StockPrices(ctx, r.rates, settings.Stocks, r.concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetching stock prices: %w", err)
	}

	page := &api.ReportEnvelope{
		Greeting:        Greeting(r.now()),
		Cards:           ledger.SummarizeCards(window),
		TopTransactions: ledger.TopTransactions(window, ledger.TopN),
		CurrencyRates:   currencyRates,
		StockPrices:     stockPrices,
	}

	logger.Info("main page ready",
		"cards", len(page.Cards),
		"currencies", len(page.CurrencyRates),
		"stocks", len(page.StockPrices),
		"duration", time.Since(start))
	return page, nil
}

// MainPageJSON is MainPage rendered as indented JSON.
func (r *Reporter) MainPageJSON(ctx context.Context, ts string) (string, error) {
	page, err := r.MainPage(ctx, ts)
	if err != nil {
		return "", err
	}
	b, err := api.MarshalIndent(page, ReportIndent)
	if err != nil {
		return "", fmt.Errorf("marshaling main page: %w", err)
	}
	return string(b), nil
}

// SpendingByCategory returns the expenses of category over the three months
// ending at date ("YYYY-MM-DD", empty for now).
func (r *Reporter) SpendingByCategory(ctx context.Context, category, date string) ([]api.Transaction, error) {
	logger := r.runLogger("category")

	end, err := ledger.ReportEnd(date, r.now())
	if err != nil {
		return nil, err
	}

	txns, err := r.load(ctx, logger)
	if err != nil {
		return nil, err
	}

	report, err := ledger.SpendingByCategory(txns, category, end)
	if err != nil {
		return nil, fmt.Errorf("building category report: %w", err)
	}

	logger.Info("category report ready", "category", category, "end", end.Format(time.DateTime), "transactions", len(report))
	return report, nil
}

// TransfersToIndividuals returns, as a JSON array, the transactions of a
// keyword-matched category whose description names a person.
func (r *Reporter) TransfersToIndividuals(ctx context.Context, keyword string) (string, error) {
	logger := r.runLogger("transfers")

	txns, err := r.load(ctx, logger)
	if err != nil {
		return "", err
	}

	found := ledger.TransfersToIndividuals(txns, keyword)
	logger.Info("transfers found", "keyword", keyword, "transactions", len(found))

	return ledger.MarshalTransactions(found)
}

// SaveReport hands a computed report to w under name.
func (r *Reporter) SaveReport(ctx context.Context, w api.ReportWriter, name string, report any) error {
	if w == nil {
		return errors.New("report writer is required")
	}
	if err := w.WriteReport(ctx, name, report); err != nil {
		return fmt.Errorf("saving report %q: %w", name, err)
	}
	return nil
}

func (r *Reporter) load(ctx context.Context, logger *slog.Logger) ([]api.Transaction, error) {
	txns, err := r.source.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	logger.Debug("ledger loaded", "transactions", len(txns))
	return txns, nil
}

func (r *Reporter) runLogger(report string) *slog.Logger {
	return r.logger.With("report", report, "run_id", uuid.NewString())
}
