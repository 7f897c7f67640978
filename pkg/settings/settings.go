// Package settings loads the user's main page preferences from a JSON file.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-viper/mapstructure/v2"
	kJson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/spendview/pkg/api"
)

// DefaultFile is the settings file looked up when none is configured.
const DefaultFile = "user_settings.json"

// Setting keys every file must carry.
const (
	KeyCurrencies = "user_currencies"
	KeyStocks     = "user_stocks"
)

// File reads settings from a JSON document on disk. The file is read on
// every call so edits apply without a restart.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a settings provider for path.
func NewFile(path string, logger *slog.Logger) *File {
	if path == "" {
		path = DefaultFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Path returns the settings file location.
func (f *File) Path() string {
	return f.path
}

// UserSettings loads and validates the settings file.
func (f *File) UserSettings(ctx context.Context) (api.UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return api.UserSettings{}, err
	}
	if _, err := os.Stat(f.path); errors.Is(err, fs.ErrNotExist) {
		return api.UserSettings{}, fmt.Errorf("settings file %s: %w", f.path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(f.path), kJson.Parser()); err != nil {
		return api.UserSettings{}, fmt.Errorf("invalid settings JSON in %s: %w", f.path, err)
	}

	for _, key := range []string{KeyCurrencies, KeyStocks} {
		if !k.Exists(key) || k.Get(key) == nil {
			return api.UserSettings{}, fmt.Errorf("%w: %s in %s", api.ErrMissingSetting, key, f.path)
		}
	}

	var s api.UserSettings
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			Result:           &s,
			WeaklyTypedInput: false,
		},
	}
	if err := k.UnmarshalWithConf("", &s, conf); err != nil {
		return api.UserSettings{}, fmt.Errorf("%w in %s: %w", api.ErrInvalidSetting, f.path, err)
	}
	if s.Currencies == nil {
		s.Currencies = []string{}
	}
	if s.Stocks == nil {
		s.Stocks = []string{}
	}

	f.logger.Debug("loaded user settings",
		"path", f.path,
		"currencies", len(s.Currencies),
		"stocks", len(s.Stocks),
	)
	return s, nil
}
