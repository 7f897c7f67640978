package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ArionMiles/spendview/pkg/client"
)

type setupCmd struct {
	Force bool `help:"Re-authenticate even when a token exists."`
}

// Run handles the OAuth setup flow for the sheets source.
func (c *setupCmd) Run(ctx context.Context, a *app) error {
	secretsPath := a.cfg.GoogleClientSecret
	tokenFile := a.cfg.GoogleTokenFile

	fmt.Fprintln(a.out, "=== spendview setup ===")
	fmt.Fprintln(a.out)

	if _, err := os.Stat(secretsPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !c.Force {
		if _, err := os.Stat(tokenFile); err == nil {
			fmt.Fprintf(a.out, "Already authenticated! Token file exists: %s\n\n", tokenFile)
			fmt.Fprintln(a.out, "To re-authenticate, run: spendview setup --force")
			return nil
		}
	} else {
		if err := os.Remove(tokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Fprintln(a.out, "Forcing re-authentication...")
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out, "This will set up OAuth authentication with Google.")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Required permissions:")
	fmt.Fprintln(a.out, "  - Sheets: Read the ledger export and write saved reports")
	fmt.Fprintln(a.out)

	if _, err := client.New(ctx, a.oauthConfig(), a.logger); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "=== Setup complete ===")
	fmt.Fprintf(a.out, "Token saved to: %s\n\n", tokenFile)
	fmt.Fprintln(a.out, "Next steps:")
	fmt.Fprintln(a.out, "  1. Set SPENDVIEW_SOURCE=sheets and GSHEETS_ID in .env")
	fmt.Fprintln(a.out, "  2. Run 'spendview status' to verify access")
	return nil
}
