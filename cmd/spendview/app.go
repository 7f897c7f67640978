package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/client"
	"github.com/ArionMiles/spendview/pkg/config"
	"github.com/ArionMiles/spendview/pkg/orchestrator"
	"github.com/ArionMiles/spendview/pkg/rates"
	csvreader "github.com/ArionMiles/spendview/pkg/reader/csv"
	"github.com/ArionMiles/spendview/pkg/reader/postgres"
	sheetsreader "github.com/ArionMiles/spendview/pkg/reader/sheets"
	"github.com/ArionMiles/spendview/pkg/reader/xlsx"
	"github.com/ArionMiles/spendview/pkg/settings"
	amqpwriter "github.com/ArionMiles/spendview/pkg/writer/amqp"
	csvwriter "github.com/ArionMiles/spendview/pkg/writer/csv"
	jsonwriter "github.com/ArionMiles/spendview/pkg/writer/json"
	sheetswriter "github.com/ArionMiles/spendview/pkg/writer/sheets"
)

// Report sink formats accepted by --format.
const (
	formatJSON   = "json"
	formatCSV    = "csv"
	formatSheets = "sheets"
	formatAMQP   = "amqp"
)

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func noop() {}

// source opens the configured ledger. The returned func releases it.
func (a *app) source(ctx context.Context) (api.Source, func(), error) {
	cfg := a.cfg
	logger := a.logger.With("source", cfg.Source)

	switch cfg.Source {
	case config.SourceXLSX:
		r, err := xlsx.New(xlsx.Config{Path: cfg.LedgerPath, Sheet: cfg.SheetName}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xlsx reader: %w", err)
		}
		return r, noop, nil

	case config.SourceCSV:
		r, err := csvreader.New(csvreader.Config{FilePath: cfg.LedgerPath}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating csv reader: %w", err)
		}
		return r, noop, nil

	case config.SourceSheets:
		httpClient, err := client.New(ctx, a.oauthConfig(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating http client: %w", err)
		}
		r, err := sheetsreader.New(httpClient, sheetsreader.Config{
			SpreadsheetID: cfg.GSheetsID,
			Range:         cfg.GSheetsRange,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating sheets reader: %w", err)
		}
		return r, noop, nil

	case config.SourcePostgres:
		pg := cfg.Postgres
		r, err := postgres.New(ctx, postgres.Config{
			URL:         pg.URL,
			Host:        pg.Host,
			Port:        pg.Port,
			Database:    pg.Database,
			User:        pg.User,
			Password:    pg.Password,
			SSLMode:     pg.SSLMode,
			Table:       pg.Table,
			MaxPoolSize: cfg.Concurrency,
			Migrate:     pg.Migrate,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating postgres reader: %w", err)
		}
		return r, r.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

func (a *app) oauthConfig() client.Config {
	return client.Config{
		SecretFile: a.cfg.GoogleClientSecret,
		TokenFile:  a.cfg.GoogleTokenFile,
		Scopes:     []string{sheets.SpreadsheetsScope},
	}
}

func (a *app) rateClient() *rates.Client {
	if missing := a.cfg.MissingRateKeys(); len(missing) > 0 {
		a.logger.Warn("rate API keys are not set, lookups will be rejected", "missing", missing)
	}
	return rates.New(rates.Config{
		CurrencyURL:    a.cfg.CurrencyAPIURL,
		CurrencyAPIKey: a.cfg.CurrencyAPIKey,
		StockURL:       a.cfg.StockAPIURL,
		StockAPIKey:    a.cfg.StockAPIKey,
		Timeout:        a.cfg.HTTPTimeout(),
	}, a.logger.With("component", "rates"))
}

// reporter validates the configuration and wires a Reporter to the
// configured source.
func (a *app) reporter(ctx context.Context) (*orchestrator.Reporter, func(), error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	src, closeSource, err := a.source(ctx)
	if err != nil {
		return nil, nil, err
	}

	r, err := orchestrator.New(
		src,
		settings.NewFile(a.cfg.SettingsFile, a.logger.With("component", "settings")),
		a.rateClient(),
		orchestrator.Config{Concurrency: a.cfg.Concurrency},
		a.logger,
	)
	if err != nil {
		closeSource()
		return nil, nil, err
	}
	return r, closeSource, nil
}

// writer opens the report sink for format.
func (a *app) writer(ctx context.Context, format string) (api.ReportWriter, func(), error) {
	switch format {
	case formatJSON:
		return jsonwriter.New(jsonwriter.Config{Dir: a.cfg.ReportsDir}, a.logger.With("component", "json_writer")), noop, nil
	case formatCSV:
		return csvwriter.New(csvwriter.Config{Dir: a.cfg.ReportsDir}, a.logger.With("component", "csv_writer")), noop, nil
	case formatSheets:
		id := a.cfg.ReportSpreadsheetID()
		if id == "" {
			return nil, nil, errors.New("GSHEETS_REPORT_ID or GSHEETS_ID is required for the sheets format")
		}
		httpClient, err := client.New(ctx, a.oauthConfig(), a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating http client: %w", err)
		}
		w, err := sheetswriter.New(httpClient, sheetswriter.Config{SpreadsheetID: id}, a.logger.With("component", "sheets_writer"))
		if err != nil {
			return nil, nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		return w, noop, nil
	case formatAMQP:
		w, err := amqpwriter.New(amqpwriter.Config{
			URL:        a.cfg.AMQP.URL,
			Exchange:   a.cfg.AMQP.Exchange,
			RoutingKey: a.cfg.AMQP.RoutingKey,
		}, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating amqp writer: %w", err)
		}
		return w, func() {
			if err := w.Close(); err != nil {
				a.logger.Warn("closing amqp writer", "error", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown report format %q", format)
}
