// Package postgres implements a Source that reads the ledger from PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/ledger"
)

//go:embed 001_create_operations.sql
var schemaSQL string

// DefaultTable holds the imported bank export.
const DefaultTable = "operations"

const paymentDateLayout = "02.01.2006"

// Config holds the PostgreSQL source configuration.
type Config struct {
	// URL is a full connection string. When set, the discrete fields are ignored.
	URL string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Table is the table holding the ledger. Defaults to DefaultTable.
	Table string
	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
	// Migrate creates the default schema when it does not exist.
	Migrate bool
}

// Reader loads transactions from a PostgreSQL table.
type Reader struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	connStr := cfg.URL
	if connStr == "" {
		connStr = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	r := &Reader{
		pool:   pool,
		table:  pgx.Identifier{cfg.Table}.Sanitize(),
		logger: logger,
	}

	if cfg.Migrate {
		if _, err := pool.Exec(ctx, schemaSQL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
		logger.Info("ensured ledger schema", "table", DefaultTable)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"table", cfg.Table,
	)
	return r, nil
}

type operationRow struct {
	OperationDate     time.Time  `db:"operation_date"`
	PaymentDate       *time.Time `db:"payment_date"`
	CardNumber        string     `db:"card_number"`
	Status            string     `db:"status"`
	OperationAmount   float64    `db:"operation_amount"`
	OperationCurrency string     `db:"operation_currency"`
	PaymentAmount     float64    `db:"payment_amount"`
	PaymentCurrency   string     `db:"payment_currency"`
	Cashback          *float64   `db:"cashback"`
	Category          string     `db:"category"`
	MCC               *float64   `db:"mcc"`
	Description       string     `db:"description"`
	Bonuses           float64    `db:"bonuses"`
	InvestRounding    float64    `db:"invest_rounding"`
	RoundedAmount     float64    `db:"rounded_amount"`
}

// Transactions returns every row of the ledger table in insertion order.
func (r *Reader) Transactions(ctx context.Context) ([]api.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT operation_date, payment_date, card_number, status,
			operation_amount, operation_currency, payment_amount, payment_currency,
			cashback, category, mcc::float8 AS mcc, description,
			bonuses, invest_rounding, rounded_amount
		FROM %s
		ORDER BY id
	`, r.table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, queryError(err, r.table)
	}

	ops, err := pgx.CollectRows(rows, pgx.RowToStructByName[operationRow])
	if err != nil {
		return nil, queryError(err, r.table)
	}

	txns := make([]api.Transaction, 0, len(ops))
	for _, op := range ops {
		txns = append(txns, op.transaction())
	}

	r.logger.Debug("read ledger table", "table", r.table, "transactions", len(txns))
	return txns, nil
}

func (op operationRow) transaction() api.Transaction {
	t := api.Transaction{
		OperationDate:     op.OperationDate.Format(ledger.RecordDateLayout),
		CardNumber:        op.CardNumber,
		Status:            op.Status,
		OperationAmount:   op.OperationAmount,
		OperationCurrency: op.OperationCurrency,
		PaymentAmount:     op.PaymentAmount,
		PaymentCurrency:   op.PaymentCurrency,
		Cashback:          op.Cashback,
		Category:          op.Category,
		MCC:               op.MCC,
		Description:       op.Description,
		Bonuses:           op.Bonuses,
		InvestRounding:    op.InvestRounding,
		RoundedAmount:     op.RoundedAmount,
	}
	if op.PaymentDate != nil {
		t.PaymentDate = op.PaymentDate.Format(paymentDateLayout)
	}
	return t
}

// queryError maps an undefined table or column to the ledger sentinels.
func queryError(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01":
			return fmt.Errorf("%w: table %s", api.ErrSourceNotFound, table)
		case "42703":
			return fmt.Errorf("%w: %v", api.ErrMissingColumn, err)
		}
	}
	return fmt.Errorf("querying %s: %w", table, err)
}

// Close closes the database connection pool.
func (r *Reader) Close() {
	if r.pool != nil {
		r.pool.Close()
		r.logger.Info("closed PostgreSQL connection pool")
	}
}
