package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	eodPathPrefix          = "/eod/"
	quotePathPrefix        = "/quote/"
	fundamentalsPathPrefix = "/fundamentals/"

	wireDateLayout = "2006-01-02"
)

// Options parameterise the market data client.
type Options struct {
	BaseURL   string
	APIToken  string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches daily candles, quotes and fundamentals over an
// EODHD-compatible JSON API.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a market data client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://eodhd.com/api"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "marketdata_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// DailyHistory retrieves end-of-day candles for ticker in [from, to).
func (c *Client) DailyHistory(ctx context.Context, ticker string, from, to time.Time) ([]Candle, error) {
	query := url.Values{}
	query.Set("from", from.UTC().Format(wireDateLayout))
	query.Set("to", to.UTC().Format(wireDateLayout))
	query.Set("period", "d")

	var rows []eodRow
	if err := c.getJSON(ctx, eodPathPrefix+url.PathEscape(ticker), query, &rows); err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(wireDateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse candle date %q: %w", row.Date, err)
		}
		if !date.Before(from) && date.Before(to) {
			candles = append(candles, Candle{
				Date:   date,
				Close:  decimal.NewFromFloat(row.AdjustedClose),
				Volume: row.Volume,
			})
		}
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles, nil
}

// Quote retrieves the latest price and trailing EPS for ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (Quote, error) {
	var row quoteRow
	if err := c.getJSON(ctx, quotePathPrefix+url.PathEscape(ticker), nil, &row); err != nil {
		return Quote{}, err
	}

	if row.Close == 0 {
		return Quote{}, fmt.Errorf("quote for %s returned zero price", ticker)
	}

	return Quote{
		Price:       decimal.NewFromFloat(row.Close),
		TrailingEPS: decimal.NewFromFloat(row.TrailingEPS),
	}, nil
}

// AnnualRevenue retrieves reported annual revenue for ticker, most recent
// first.
func (c *Client) AnnualRevenue(ctx context.Context, ticker string) ([]RevenuePeriod, error) {
	query := url.Values{}
	query.Set("filter", "Financials::Income_Statement::yearly")

	var rows map[string]incomeRow
	if err := c.getJSON(ctx, fundamentalsPathPrefix+url.PathEscape(ticker), query, &rows); err != nil {
		return nil, err
	}

	periods := make([]RevenuePeriod, 0, len(rows))
	for _, row := range rows {
		end, err := time.Parse(wireDateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse period end %q: %w", row.Date, err)
		}
		revenue, err := decimal.NewFromString(row.TotalRevenue)
		if err != nil {
			return nil, fmt.Errorf("parse revenue %q: %w", row.TotalRevenue, err)
		}
		periods = append(periods, RevenuePeriod{PeriodEnd: end, Revenue: revenue})
	}

	sort.Slice(periods, func(i, j int) bool { return periods[i].PeriodEnd.After(periods[j].PeriodEnd) })
	return periods, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.opts.APIToken)
	query.Set("fmt", "json")

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "marketscholar/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}

	return json.Unmarshal(payload, out)
}

type eodRow struct {
	Date          string  `json:"date"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

type quoteRow struct {
	Close       float64 `json:"close"`
	TrailingEPS float64 `json:"trailingEps"`
}

type incomeRow struct {
	Date         string `json:"date"`
	TotalRevenue string `json:"totalRevenue"`
}

type errorResponse struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Description != "" {
			return fmt.Errorf("market api error (%d): %s", status, apiErr.Description)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("market api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.ErrorType != "" {
			return fmt.Errorf("market api error (%d): %s", status, apiErr.ErrorType)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("market api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("market api error (%d)", status)
}

var _ Provider = (*Client)(nil)
