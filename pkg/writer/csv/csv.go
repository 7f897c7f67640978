// Package csv implements a ReportWriter that saves transaction reports as CSV.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// DefaultFileName is used when a report is saved without a name.
const DefaultFileName = "report_file.csv"

// ErrUnsupportedReport is returned for reports that are not transaction lists.
var ErrUnsupportedReport = errors.New("csv writer only supports transaction reports")

// Config holds configuration for the CSV writer.
type Config struct {
	// Dir is the directory reports are saved in.
	Dir string
	// Delimiter is the field separator. Defaults to ';' like the bank export.
	Delimiter rune
}

// Writer saves transaction reports with the bank export header so they can
// be read back by the CSV source.
type Writer struct {
	dir       string
	delimiter rune
	mu        sync.Mutex
	logger    *slog.Logger
}

// New creates a new CSV writer.
func New(cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ';'
	}
	return &Writer{
		dir:       cfg.Dir,
		delimiter: cfg.Delimiter,
		logger:    logger,
	}
}

// Path resolves the file a report called name is saved to.
func (w *Writer) Path(name string) string {
	if name == "" {
		name = DefaultFileName
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.dir, name)
}

// WriteReport writes a []api.Transaction report under name.
func (w *Writer) WriteReport(ctx context.Context, name string, report any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txns, ok := report.([]api.Transaction)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrUnsupportedReport, report)
	}

	path := w.Path(name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening csv file: %w", err)
	}

	if err := w.encode(file, txns); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return fmt.Errorf("%w (close error: %w)", err, closeErr)
		}
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("saved report", "file", path, "rows", len(txns))
	return nil
}

func (w *Writer) encode(out io.Writer, txns []api.Transaction) error {
	cw := csv.NewWriter(out)
	cw.Comma = w.delimiter

	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range txns {
		if err := cw.Write(table.Encode(t)); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
