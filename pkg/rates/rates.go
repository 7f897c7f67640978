// Package rates implements a RateProvider backed by the exchange rate and
// stock quote HTTP APIs.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"
)

// Default endpoints and client behaviour.
const (
	DefaultCurrencyURL = "https://api.apilayer.com/exchangerates_data/latest"
	DefaultStockURL    = "https://api.twelvedata.com/price"
	DefaultTimeout     = 10 * time.Second
	DefaultAttempts    = 3
	DefaultRetryDelay  = 500 * time.Millisecond

	// QuoteCurrency is the currency every rate is expressed in.
	QuoteCurrency = "RUB"

	maxErrorBody = 512
)

// ErrUnexpectedResponse is returned when an API answers with a body that
// does not carry the requested value.
var ErrUnexpectedResponse = errors.New("unexpected api response")

// StatusError is a non-2xx reply from a rate API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api: status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Config holds configuration for the rate client.
type Config struct {
	CurrencyURL    string
	CurrencyAPIKey string
	StockURL       string
	StockAPIKey    string

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Attempts is the number of tries for rate limited or failing requests.
	// Defaults to DefaultAttempts.
	Attempts uint
	// RetryDelay is the base delay between attempts. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// Client looks up currency rates and stock prices.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a new rate client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CurrencyURL == "" {
		cfg.CurrencyURL = DefaultCurrencyURL
	}
	if cfg.StockURL == "" {
		cfg.StockURL = DefaultStockURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

type currencyResponse struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
	Message string             `json:"message"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

// CurrencyRate returns how many RUB one unit of currency costs.
func (c *Client) CurrencyRate(ctx context.Context, currency string) (float64, error) {
	q := url.Values{}
	q.Set("symbols", QuoteCurrency)
	q.Set("base", currency)
	header := http.Header{}
	header.Set("apikey", c.cfg.CurrencyAPIKey)

	var resp currencyResponse
	if err := c.getJSON(ctx, "currency", c.cfg.CurrencyURL, q, header, &resp); err != nil {
		return 0, err
	}

	if !resp.Success {
		msg := resp.Message
		if resp.Error != nil {
			msg = fmt.Sprintf("%s: %s", resp.Error.Type, resp.Error.Info)
		}
		return 0, fmt.Errorf("%w: currency %s: %s", ErrUnexpectedResponse, currency, msg)
	}
	rate, ok := resp.Rates[QuoteCurrency]
	if !ok {
		return 0, fmt.Errorf("%w: currency %s: no %s rate", ErrUnexpectedResponse, currency, QuoteCurrency)
	}

	c.logger.Debug("fetched currency rate", "currency", currency, "rate", rate)
	return rate, nil
}

// The quote API sends price as a quoted string; decimal accepts both forms.
type stockResponse struct {
	Price   *decimal.Decimal `json:"price"`
	Status  string           `json:"status"`
	Message string           `json:"message"`
}

// StockPrice returns the last price of symbol rounded to two decimals.
func (c *Client) StockPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.cfg.StockAPIKey)

	var resp stockResponse
	if err := c.getJSON(ctx, "stock", c.cfg.StockURL, q, nil, &resp); err != nil {
		return 0, err
	}

	if resp.Status == "error" {
		return 0, fmt.Errorf("%w: stock %s: %s", ErrUnexpectedResponse, symbol, resp.Message)
	}
	if resp.Price == nil {
		return 0, fmt.Errorf("%w: stock %s: no price", ErrUnexpectedResponse, symbol)
	}

	price := resp.Price.Round(2).InexactFloat64()
	c.logger.Debug("fetched stock price", "stock", symbol, "price", price)
	return price, nil
}

// getJSON performs a GET with retries on rate limiting and server errors and
// decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, service, base string, q url.Values, header http.Header, out any) error {
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parsing %s api url: %w", service, err)
	}
	u.RawQuery = q.Encode()

	var body []byte
	err = retry.Do(
		func() error {
			var getErr error
			body, getErr = c.get(ctx, service, u.String(), header)
			return getErr
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.RetryIf(func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Temporary() {
				c.logger.Warn("rate api unavailable, will retry", "service", service, "status", statusErr.StatusCode)
				return true
			}
			return false
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrUnexpectedResponse, service, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, service, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", service, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s api: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
