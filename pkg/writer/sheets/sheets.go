// Package sheets implements a ReportWriter that writes transaction reports
// to a tab of a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// Defaults for the Sheets writer.
const (
	DefaultSheetName  = "report"
	DefaultRetryDelay = 60 * time.Second
	defaultAttempts   = 3
)

// ErrUnsupportedReport is returned for reports that are not transaction lists.
var ErrUnsupportedReport = errors.New("sheets writer only supports transaction reports")

// Config holds configuration for the Sheets writer.
type Config struct {
	// SpreadsheetID is the spreadsheet reports are written into.
	SpreadsheetID string
	// RetryDelay is the base delay between rate limited attempts.
	// Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// Endpoint overrides the API base URL.
	Endpoint string
}

// Writer replaces the content of one tab per report with the bank export
// header followed by the report rows.
type Writer struct {
	client        *sheets.Service
	spreadsheetID string
	retryDelay    time.Duration
	logger        *slog.Logger
}

// New creates a new Sheets writer.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Writer, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := sheets.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Writer{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		retryDelay:    cfg.RetryDelay,
		logger:        logger,
	}, nil
}

// WriteReport writes a []api.Transaction report to the tab called name,
// creating the tab when needed. An empty name means DefaultSheetName.
func (w *Writer) WriteReport(ctx context.Context, name string, report any) error {
	txns, ok := report.([]api.Transaction)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrUnsupportedReport, report)
	}
	if name == "" {
		name = DefaultSheetName
	}

	if err := w.ensureSheet(ctx, name); err != nil {
		return err
	}

	rng := quoteSheet(name)
	err := w.do(ctx, func() error {
		_, err := w.client.Spreadsheets.Values.Clear(w.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return w.wrap(err, "clearing sheet %q", name)
	}

	values := make([][]any, 0, len(txns)+1)
	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, t := range txns {
		values = append(values, row(t))
	}

	err = w.do(ctx, func() error {
		_, err := w.client.Spreadsheets.Values.Update(w.spreadsheetID, rng+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return w.wrap(err, "writing sheet %q", name)
	}

	w.logger.Info("wrote report to spreadsheet",
		"spreadsheet_id", w.spreadsheetID,
		"sheet", name,
		"rows", len(txns),
	)
	return nil
}

func (w *Writer) ensureSheet(ctx context.Context, name string) error {
	var spreadsheet *sheets.Spreadsheet
	err := w.do(ctx, func() error {
		var err error
		spreadsheet, err = w.client.Spreadsheets.Get(w.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return w.wrap(err, "getting spreadsheet")
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	err = w.do(ctx, func() error {
		_, err := w.client.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return w.wrap(err, "adding sheet %q", name)
	}

	w.logger.Info("created sheet", "spreadsheet_id", w.spreadsheetID, "sheet", name)
	return nil
}

// do runs fn, retrying while the API answers 429.
func (w *Writer) do(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				w.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(defaultAttempts),
		retry.Delay(w.retryDelay),
		retry.LastErrorOnly(true),
	)
}

func (w *Writer) wrap(err error, format string, args ...any) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: spreadsheet %s", api.ErrSourceNotFound, w.spreadsheetID)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// quoteSheet renders a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func row(t api.Transaction) []any {
	optional := func(v *float64) any {
		if v == nil {
			return ""
		}
		return *v
	}
	return []any{
		t.OperationDate,
		t.PaymentDate,
		t.CardNumber,
		t.Status,
		t.OperationAmount,
		t.OperationCurrency,
		t.PaymentAmount,
		t.PaymentCurrency,
		optional(t.Cashback),
		t.Category,
		optional(t.MCC),
		t.Description,
		t.Bonuses,
		t.InvestRounding,
		t.RoundedAmount,
	}
}
