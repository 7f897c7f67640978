// Package xlsx implements a Source that reads a bank export workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/ledger"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// paymentDateLayout is the day-only format of the payment date column.
const paymentDateLayout = "02.01.2006"

// Config holds configuration for the workbook reader.
type Config struct {
	// Path is the location of the .xlsx file.
	Path string
	// Sheet is the worksheet to read. Defaults to the first sheet.
	Sheet string
}

// Reader loads transactions from an .xlsx workbook.
type Reader struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// New creates a new workbook reader.
func New(cfg Config, logger *slog.Logger) (*Reader, error) {
	if cfg.Path == "" {
		return nil, errors.New("workbook path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		path:   cfg.Path,
		sheet:  cfg.Sheet,
		logger: logger,
	}, nil
}

// Transactions reads every data row of the configured worksheet.
func (r *Reader) Transactions(ctx context.Context) ([]api.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", api.ErrSourceNotFound, r.path)
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("failed to close workbook", "path", r.path, "error", err)
		}
	}()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets: %w", r.path, api.ErrMissingColumn)
		}
		sheet = sheets[0]
	}

	// Raw values keep amounts free of display formatting such as grouping.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if err := normalizeDates(rows); err != nil {
		return nil, err
	}

	txns, err := table.Decode(rows)
	if err != nil {
		return nil, fmt.Errorf("decoding sheet %q: %w", sheet, err)
	}

	r.logger.Debug("read workbook", "path", r.path, "sheet", sheet, "transactions", len(txns))
	return txns, nil
}

// normalizeDates rewrites date cells that Excel stored as serial numbers into
// the textual layout used by the export.
func normalizeDates(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	layouts := make(map[int]string)
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case table.ColOperationDate:
			layouts[i] = ledger.RecordDateLayout
		case table.ColPaymentDate:
			layouts[i] = paymentDateLayout
		}
	}

	for _, row := range rows[1:] {
		for c, layout := range layouts {
			if c >= len(row) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return fmt.Errorf("converting date serial %v: %w", serial, err)
			}
			row[c] = t.Round(time.Second).Format(layout)
		}
	}
	return nil
}
