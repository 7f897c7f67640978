// Command spendview builds spending reports from a bank card export.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/ArionMiles/spendview/pkg/config"
	"github.com/ArionMiles/spendview/pkg/logging"
)

var cli struct {
	MainPage  mainPageCmd  `cmd:"" name:"main-page" help:"Print the month to date overview: cards, top transactions, rates and stocks."`
	Category  categoryCmd  `cmd:"" help:"Print the expenses of one category over the last three months."`
	Transfers transfersCmd `cmd:"" help:"Print transfers to individuals."`
	Status    statusCmd    `cmd:"" help:"Check configuration, ledger and credentials."`
	Setup     setupCmd     `cmd:"" help:"Authenticate with Google for the sheets source."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.DefaultConfig())

	kctx := kong.Parse(&cli,
		kong.Name("spendview"),
		kong.Description("Spending reports for bank card exports."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err = kctx.Run(&app{cfg: cfg, logger: logger, out: os.Stdout})
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
	}
	stop()
	kctx.FatalIfErrorf(err)
}
