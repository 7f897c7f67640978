// Package json implements a ReportWriter that saves reports as JSON files.
package json

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ArionMiles/spendview/pkg/api"
)

// Defaults for saved reports.
const (
	DefaultFileName = "report_file.json"
	DefaultIndent   = "    "
)

// Config holds configuration for the JSON writer.
type Config struct {
	// Dir is the directory reports are saved in. Relative names are joined to it.
	Dir string
	// Indent is the per-level indentation. Defaults to four spaces.
	Indent string
}

// Writer saves each report to its own JSON file, replacing any previous
// content.
type Writer struct {
	dir    string
	indent string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a new JSON writer.
func New(cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Indent == "" {
		cfg.Indent = DefaultIndent
	}
	return &Writer{
		dir:    cfg.Dir,
		indent: cfg.Indent,
		logger: logger,
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

// WriteReport encodes report and writes it under name. An empty name means
// DefaultFileName.
func (w *Writer) WriteReport(ctx context.Context, name string, report any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := api.MarshalIndent(report, w.indent)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	path := w.Path(name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}

	w.logger.Info("saved report", "file", path, "bytes", len(data))
	return nil
}
