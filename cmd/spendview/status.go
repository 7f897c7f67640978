package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ArionMiles/spendview/pkg/client"
	"github.com/ArionMiles/spendview/pkg/config"
	"github.com/ArionMiles/spendview/pkg/settings"
)

type statusCmd struct {
	Offline bool `help:"Skip checks that open the ledger source."`
}

// Run checks the configuration, inputs and credentials without failing on
// the first problem.
func (c *statusCmd) Run(ctx context.Context, a *app) error {
	fmt.Fprintln(a.out, "=== spendview status ===")
	fmt.Fprintln(a.out)

	allGood := true
	fail := func(format string, args ...any) {
		fmt.Fprintf(a.out, "✗ "+format+"\n", args...)
		allGood = false
	}
	ok := func(format string, args ...any) {
		fmt.Fprintf(a.out, "✓ "+format+"\n", args...)
	}

	fmt.Fprint(a.out, "Configuration: ")
	configValid := true
	if err := a.cfg.Validate(); err != nil {
		fail("%v", err)
		configValid = false
	} else {
		ok("valid (source: %s)", a.cfg.Source)
	}

	fmt.Fprintf(a.out, "User settings (%s): ", a.cfg.SettingsFile)
	us, err := settings.NewFile(a.cfg.SettingsFile, a.logger).UserSettings(ctx)
	if err != nil {
		fail("%v", err)
	} else {
		ok("%d currencies, %d stocks", len(us.Currencies), len(us.Stocks))
	}

	fmt.Fprint(a.out, "Rate API keys: ")
	if missing := a.cfg.MissingRateKeys(); len(missing) > 0 {
		fail("missing %v", missing)
	} else {
		ok("set")
	}

	canRead := configValid && !c.Offline
	if a.cfg.Source == config.SourceSheets {
		// Without a token, opening the source would start the browser flow.
		canRead = c.checkGoogle(a, fail, ok) && canRead
	}

	if canRead {
		fmt.Fprint(a.out, "Ledger: ")
		if n, err := c.countTransactions(ctx, a); err != nil {
			fail("%v", err)
		} else {
			ok("%d transactions", n)
		}
	}

	fmt.Fprintln(a.out)
	if allGood {
		fmt.Fprintln(a.out, "Status: ✓ Ready to run")
	} else {
		fmt.Fprintln(a.out, "Status: ✗ Configuration issues detected")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Fix the issues above, then run 'spendview status' again.")
	}
	return nil
}

func (c *statusCmd) checkGoogle(a *app, fail, ok func(string, ...any)) bool {
	fmt.Fprintf(a.out, "Credentials file (%s): ", a.cfg.GoogleClientSecret)
	if _, err := os.Stat(a.cfg.GoogleClientSecret); errors.Is(err, fs.ErrNotExist) {
		fail("not found")
	} else {
		ok("found")
	}

	fmt.Fprintf(a.out, "OAuth token (%s): ", a.cfg.GoogleTokenFile)
	token, err := client.LoadToken(a.cfg.GoogleTokenFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fail("not found (run 'spendview setup')")
		return false
	case err != nil:
		fail("invalid format")
		return false
	case token.Expiry.Before(time.Now()):
		fmt.Fprintln(a.out, "⚠ Expired (will refresh on next run)")
	default:
		ok("valid (expires: %s)", token.Expiry.Format(time.RFC3339))
	}
	return true
}

func (c *statusCmd) countTransactions(ctx context.Context, a *app) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	src, closeSource, err := a.source(ctx)
	if err != nil {
		return 0, err
	}
	defer closeSource()

	txns, err := src.Transactions(ctx)
	if err != nil {
		return 0, err
	}
	return len(txns), nil
}
