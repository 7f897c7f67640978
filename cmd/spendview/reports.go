package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/ledger"
	"github.com/ArionMiles/spendview/pkg/orchestrator"
)

type mainPageCmd struct {
	At     string `help:"Reference timestamp, YYYY-MM-DD HH:MM:SS. Defaults to now."`
	Save   bool   `help:"Also save the page through the selected sink."`
	Format string `enum:"json,amqp" default:"json" help:"Sink used with --save (json, amqp)."`
	Output string `default:"main_page.json" help:"Report name used with --save."`
}

func (c *mainPageCmd) Run(ctx context.Context, a *app) error {
	r, closeSource, err := a.reporter(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	at := c.At
	if at == "" {
		at = time.Now().Format(ledger.TimestampLayout)
	}

	page, err := r.MainPage(ctx, at)
	if err != nil {
		return err
	}
	if err := printJSON(a, page); err != nil {
		return err
	}

	if c.Save {
		return save(ctx, a, r, c.Format, c.Output, page)
	}
	return nil
}

type categoryCmd struct {
	Name   string `arg:"" help:"Category, matched exactly (e.g. Супермаркеты)."`
	Date   string `help:"Last day of the report, YYYY-MM-DD. Defaults to now."`
	Save   bool   `help:"Also save the report through the selected sink."`
	Format string `enum:"json,csv,sheets,amqp" default:"json" help:"Sink used with --save (json, csv, sheets, amqp)."`
	Output string `help:"Report name used with --save. Defaults to report_file.<format>."`
}

func (c *categoryCmd) Run(ctx context.Context, a *app) error {
	r, closeSource, err := a.reporter(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	report, err := r.SpendingByCategory(ctx, c.Name, c.Date)
	if err != nil {
		return err
	}
	if err := printJSON(a, report); err != nil {
		return err
	}

	if c.Save {
		return save(ctx, a, r, c.Format, c.Output, report)
	}
	return nil
}

type transfersCmd struct {
	Keyword string `default:"переводы" help:"Case-insensitive part of the category name."`
}

func (c *transfersCmd) Run(ctx context.Context, a *app) error {
	r, closeSource, err := a.reporter(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	out, err := r.TransfersToIndividuals(ctx, c.Keyword)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, out)
	return err
}

func printJSON(a *app, v any) error {
	b, err := api.MarshalIndent(v, orchestrator.ReportIndent)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func save(ctx context.Context, a *app, r *orchestrator.Reporter, format, name string, report any) error {
	w, closeWriter, err := a.writer(ctx, format)
	if err != nil {
		return err
	}
	defer closeWriter()

	if name == "" && (format == formatJSON || format == formatCSV) {
		name = "report_file." + format
	}
	return r.SaveReport(ctx, w, name, report)
}
