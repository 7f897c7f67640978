// Package config loads spendview settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Ledger source kinds.
const (
	SourceXLSX     = "xlsx"
	SourceCSV      = "csv"
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

// Sources lists every supported SPENDVIEW_SOURCE value.
var Sources = []string{SourceXLSX, SourceCSV, SourceSheets, SourcePostgres}

const (
	// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
	ClientSecretFile = "data/client_secret.json"
	// TokenFile is the default path of the cached OAuth token.
	TokenFile = "data/token.json"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Source selects where the ledger is read from.
	// Environment variable: SPENDVIEW_SOURCE
	Source string `koanf:"SPENDVIEW_SOURCE"`

	// LedgerPath is the xlsx or csv export.
	// Environment variable: SPENDVIEW_LEDGER_PATH
	LedgerPath string `koanf:"SPENDVIEW_LEDGER_PATH"`

	// SheetName is the worksheet inside the xlsx export. Empty means the first sheet.
	// Environment variable: SPENDVIEW_SHEET_NAME
	SheetName string `koanf:"SPENDVIEW_SHEET_NAME"`

	// SettingsFile is the JSON file with user_currencies and user_stocks.
	// Environment variable: SPENDVIEW_SETTINGS_FILE
	SettingsFile string `koanf:"SPENDVIEW_SETTINGS_FILE"`

	// ReportsDir is where saved reports are written.
	// Environment variable: SPENDVIEW_REPORTS_DIR
	ReportsDir string `koanf:"SPENDVIEW_REPORTS_DIR"`

	// Concurrency bounds parallel rate lookups.
	// Environment variable: SPENDVIEW_CONCURRENCY
	Concurrency int `koanf:"SPENDVIEW_CONCURRENCY"`

	// HTTPTimeoutSeconds bounds each rate API request.
	// Environment variable: SPENDVIEW_HTTP_TIMEOUT_SECONDS
	HTTPTimeoutSeconds int `koanf:"SPENDVIEW_HTTP_TIMEOUT_SECONDS"`

	CurrencyAPIKey string `koanf:"API_KEY_FOR_CURRENCY"`
	StockAPIKey    string `koanf:"API_KEY_FOR_STOCKS"`
	CurrencyAPIURL string `koanf:"CURRENCY_API_URL"`
	StockAPIURL    string `koanf:"STOCK_API_URL"`

	// GSheetsID is the spreadsheet holding the ledger when Source is sheets.
	// Environment variable: GSHEETS_ID
	GSheetsID string `koanf:"GSHEETS_ID"`

	// GSheetsReportID is the spreadsheet category reports are saved to with
	// the sheets format. Defaults to GSheetsID.
	// Environment variable: GSHEETS_REPORT_ID
	GSheetsReportID string `koanf:"GSHEETS_REPORT_ID"`

	// GSheetsRange is the A1 range to read.
	// Environment variable: GSHEETS_RANGE
	GSheetsRange string `koanf:"GSHEETS_RANGE"`

	// GoogleClientSecret is the OAuth client JSON used for Sheets.
	// Environment variable: GOOGLE_CLIENT_SECRET_FILE
	GoogleClientSecret string `koanf:"GOOGLE_CLIENT_SECRET_FILE"`

	// GoogleTokenFile caches the OAuth token written by the setup command.
	// Environment variable: GOOGLE_TOKEN_FILE
	GoogleTokenFile string `koanf:"GOOGLE_TOKEN_FILE"`

	Postgres PostgresConfig `koanf:",squash"`
	AMQP     AMQPConfig     `koanf:",squash"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	URL      string `koanf:"POSTGRES_URL"`
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
	Table    string `koanf:"POSTGRES_TABLE"`
	// Migrate creates the ledger table on startup when it is missing.
	Migrate bool `koanf:"POSTGRES_MIGRATE"`
}

// AMQPConfig holds the optional report publisher configuration.
type AMQPConfig struct {
	URL        string `koanf:"AMQP_URL"`
	Exchange   string `koanf:"AMQP_EXCHANGE"`
	RoutingKey string `koanf:"AMQP_ROUTING_KEY"`
}

func defaults() map[string]any {
	return map[string]any{
		"SPENDVIEW_SOURCE":               SourceXLSX,
		"SPENDVIEW_LEDGER_PATH":          "data/operations.xlsx",
		"SPENDVIEW_SETTINGS_FILE":        "user_settings.json",
		"SPENDVIEW_REPORTS_DIR":          "data",
		"SPENDVIEW_CONCURRENCY":          4,
		"SPENDVIEW_HTTP_TIMEOUT_SECONDS": 10,
		"GSHEETS_RANGE":                  "A:O",
		"GOOGLE_CLIENT_SECRET_FILE":      ClientSecretFile,
		"GOOGLE_TOKEN_FILE":              TokenFile,
		"POSTGRES_PORT":                  5432,
		"POSTGRES_SSLMODE":               "disable",
		"POSTGRES_TABLE":                 "operations",
		"AMQP_EXCHANGE":                  "spendview",
		"AMQP_ROUTING_KEY":               "reports",
	}
}

// Load reads the configuration from the process environment on top of the
// built-in defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ReportSpreadsheetID returns the spreadsheet the sheets sink writes to.
func (c *Config) ReportSpreadsheetID() string {
	if c.GSheetsReportID != "" {
		return c.GSheetsReportID
	}
	return c.GSheetsID
}

// HTTPTimeout returns the rate API timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// MissingRateKeys lists the API key variables that are not set.
func (c *Config) MissingRateKeys() []string {
	var missing []string
	if c.CurrencyAPIKey == "" {
		missing = append(missing, "API_KEY_FOR_CURRENCY")
	}
	if c.StockAPIKey == "" {
		missing = append(missing, "API_KEY_FOR_STOCKS")
	}
	return missing
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if !slices.Contains(Sources, c.Source) {
		problems = append(problems, fmt.Sprintf("invalid source %q: must be one of %v", c.Source, Sources))
	}

	switch c.Source {
	case SourceXLSX, SourceCSV:
		if c.LedgerPath == "" {
			problems = append(problems, "SPENDVIEW_LEDGER_PATH is required for file sources")
		}
	case SourceSheets:
		if c.GSheetsID == "" {
			problems = append(problems, "GSHEETS_ID is required when using the sheets source")
		}
	case SourcePostgres:
		if c.Postgres.URL == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			problems = append(problems, "POSTGRES_URL or POSTGRES_HOST and POSTGRES_DB are required when using the postgres source")
		}
	}

	if c.SettingsFile == "" {
		problems = append(problems, "SPENDVIEW_SETTINGS_FILE cannot be empty")
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		problems = append(problems, fmt.Sprintf("invalid concurrency %d: must be between 1 and 64", c.Concurrency))
	}
	if c.HTTPTimeoutSeconds < 1 || c.HTTPTimeoutSeconds > 300 {
		problems = append(problems, fmt.Sprintf("invalid http timeout %ds: must be between 1 and 300 seconds", c.HTTPTimeoutSeconds))
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
