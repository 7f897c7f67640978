package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendview/pkg/api"
)

// fakeProvider answers from maps; earlier keys answer more slowly so that
// completion order differs from input order.
type fakeProvider struct {
	mu       sync.Mutex
	inFlight int
	peak     int

	rates  map[string]float64
	prices map[string]float64
	delay  map[string]time.Duration
	err    error
}

func (f *fakeProvider) track(key string) func() {
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()
	time.Sleep(f.delay[key])
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeProvider) CurrencyRate(_ context.Context, currency string) (float64, error) {
	defer f.track(currency)()
	if f.err != nil && currency == "ERR" {
		return 0, f.err
	}
	return f.rates[currency], nil
}

func (f *fakeProvider) StockPrice(_ context.Context, symbol string) (float64, error) {
	defer f.track(symbol)()
	return f.prices[symbol], nil
}

var _ api.RateProvider = (*fakeProvider)(nil)

func TestCurrencyRates_KeepsInputOrder(t *testing.T) {
	p := &fakeProvider{
		rates: map[string]float64{"USD": 75.5, "EUR": 85.1, "CNY": 11.2},
		delay: map[string]time.Duration{"USD": 30 * time.Millisecond, "EUR": 10 * time.Millisecond},
	}

	got, err := CurrencyRates(context.Background(), p, []string{"USD", "EUR", "CNY"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []api.CurrencyRate{
		{Currency: "USD", Rate: 75.5},
		{Currency: "EUR", Rate: 85.1},
		{Currency: "CNY", Rate: 11.2},
	}, got)
}

func TestStockPrices_RespectsLimit(t *testing.T) {
	symbols := []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"}
	p := &fakeProvider{prices: map[string]float64{}, delay: map[string]time.Duration{}}
	for i, s := range symbols {
		p.prices[s] = float64(i + 1)
		p.delay[s] = 5 * time.Millisecond
	}

	got, err := StockPrices(context.Background(), p, symbols, 2)
	require.NoError(t, err)
	require.Len(t, got, len(symbols))
	for i, s := range symbols {
		assert.Equal(t, api.StockPrice{Stock: s, Price: float64(i + 1)}, got[i])
	}
	assert.LessOrEqual(t, p.peak, 2)
}

func TestCurrencyRates_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	p := &fakeProvider{rates: map[string]float64{"USD": 1}, err: boom}

	got, err := CurrencyRates(context.Background(), p, []string{"USD", "ERR"}, 0)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "currency ERR")
	assert.Nil(t, got)
}

func TestFanout_Empty(t *testing.T) {
	rates, err := CurrencyRates(context.Background(), &fakeProvider{}, nil, 4)
	require.NoError(t, err)
	assert.NotNil(t, rates)
	assert.Empty(t, rates)

	prices, err := StockPrices(context.Background(), &fakeProvider{}, []string{}, 4)
	require.NoError(t, err)
	assert.NotNil(t, prices)
	assert.Empty(t, prices)
}
