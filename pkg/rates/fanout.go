package rates

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ArionMiles/spendview/pkg/api"
)

// CurrencyRates looks up every currency with at most limit requests in
// flight. Results follow the order of currencies. The first failure cancels
// the remaining lookups and is returned.
func CurrencyRates(ctx context.Context, p api.RateProvider, currencies []string, limit int) ([]api.CurrencyRate, error) {
	out := make([]api.CurrencyRate, len(currencies))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, cur := range currencies {
		g.Go(func() error {
			rate, err := p.CurrencyRate(ctx, cur)
			if err != nil {
				return fmt.Errorf("currency %s: %w", cur, err)
			}
			out[i] = api.CurrencyRate{Currency: cur, Rate: rate}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StockPrices is CurrencyRates for stock symbols.
func StockPrices(ctx context.Context, p api.RateProvider, symbols []string, limit int) ([]api.StockPrice, error) {
	out := make([]api.StockPrice, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, sym := range symbols {
		g.Go(func() error {
			price, err := p.StockPrice(ctx, sym)
			if err != nil {
				return fmt.Errorf("stock %s: %w", sym, err)
			}
			out[i] = api.StockPrice{Stock: sym, Price: price}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
