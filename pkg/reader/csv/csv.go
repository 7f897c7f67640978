// Package csv implements a Source that reads a bank export saved as CSV.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// DefaultDelimiter is the field separator of bank CSV exports.
const DefaultDelimiter = ';'

// Config holds configuration for the CSV reader.
type Config struct {
	// FilePath is the location of the CSV file.
	FilePath string
	// Delimiter is the field separator. Defaults to DefaultDelimiter.
	Delimiter rune
}

// Reader loads transactions from a CSV file.
type Reader struct {
	filePath  string
	delimiter rune
	logger    *slog.Logger
}

// New creates a new CSV reader.
func New(cfg Config, logger *slog.Logger) (*Reader, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("file path is required")
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = DefaultDelimiter
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		filePath:  cfg.FilePath,
		delimiter: cfg.Delimiter,
		logger:    logger,
	}, nil
}

// Transactions reads and decodes the whole file.
func (r *Reader) Transactions(ctx context.Context) ([]api.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", api.ErrSourceNotFound, r.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()

	txns, err := Decode(f, r.delimiter)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.filePath, err)
	}

	r.logger.Debug("read csv ledger", "path", r.filePath, "transactions", len(txns))
	return txns, nil
}

// Decode parses CSV content whose first record is the export header.
func Decode(in io.Reader, delimiter rune) ([]api.Transaction, error) {
	cr := csv.NewReader(in)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return table.Decode(rows)
}
