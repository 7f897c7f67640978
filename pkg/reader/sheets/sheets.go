// Package sheets implements a Source that reads the ledger from Google Sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// Defaults for reading a spreadsheet.
const (
	DefaultRange      = "A:O"
	DefaultRetryDelay = 5 * time.Second
	defaultAttempts   = 3
)

// Config holds configuration for the Sheets reader.
type Config struct {
	// SpreadsheetID is the ID of the spreadsheet holding the export.
	SpreadsheetID string
	// Range is an A1 range, optionally prefixed with a sheet name
	// ("Операции!A:O"). Defaults to DefaultRange.
	Range string
	// RetryDelay is the base delay between rate limited attempts.
	// Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// Endpoint overrides the API base URL.
	Endpoint string
}

// Reader loads transactions from a spreadsheet range.
type Reader struct {
	client        *sheets.Service
	spreadsheetID string
	readRange     string
	retryDelay    time.Duration
	logger        *slog.Logger
}

// New creates a new Sheets reader using an authorized HTTP client.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Reader, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
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

	return &Reader{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.Range,
		retryDelay:    cfg.RetryDelay,
		logger:        logger,
	}, nil
}

// Transactions fetches the configured range and decodes it.
func (r *Reader) Transactions(ctx context.Context) ([]api.Transaction, error) {
	var resp *sheets.ValueRange
	err := retry.Do(
		func() error {
			var err error
			resp, err = r.client.Spreadsheets.Values.Get(r.spreadsheetID, r.readRange).
				ValueRenderOption("UNFORMATTED_VALUE").
				DateTimeRenderOption("FORMATTED_STRING").
				Context(ctx).
				Do()
			return err
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				r.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(defaultAttempts),
		retry.Delay(r.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: spreadsheet %s", api.ErrSourceNotFound, r.spreadsheetID)
		}
		return nil, fmt.Errorf("reading range %q: %w", r.readRange, err)
	}

	txns, err := table.DecodeValues(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("decoding range %q: %w", r.readRange, err)
	}

	r.logger.Debug("read spreadsheet",
		"spreadsheet_id", r.spreadsheetID,
		"range", resp.Range,
		"transactions", len(txns),
	)
	return txns, nil
}
