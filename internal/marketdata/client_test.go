package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		APIToken:  "test-token",
		Timeout:   time.Second,
		UserAgent: "test",
	}, noopLogger())
}

func TestDailyHistorySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "test-token" {
			t.Fatalf("api_token 缺失: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2026-02-03", "adjusted_close": 101.5, "volume": 1200},
			{"date": "2026-02-02", "adjusted_close": 100.0, "volume": 1000},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	candles, err := c.DailyHistory(context.Background(), "ACME", from, to)
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("期望 2 根K线, 实际 %d", len(candles))
	}
	if !candles[0].Date.Before(candles[1].Date) {
		t.Fatal("K线应按日期升序")
	}
	if candles[1].Close.Cmp(decimal.NewFromFloat(101.5)) != 0 {
		t.Fatalf("期望收盘 101.5, 实际 %s", candles[1].Close.String())
	}
}

func TestDailyHistoryFiltersWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2026-01-31", "adjusted_close": 95.0, "volume": 900},
			{"date": "2026-02-02", "adjusted_close": 100.0, "volume": 1000},
			{"date": "2026-02-10", "adjusted_close": 105.0, "volume": 1100},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	candles, err := c.DailyHistory(context.Background(), "ACME", from, to)
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("窗口过滤后应剩 1 根, 实际 %d", len(candles))
	}
}

func TestQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"close":       120.25,
			"trailingEps": 5.4,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	quote, err := c.Quote(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if quote.Price.Cmp(decimal.NewFromFloat(120.25)) != 0 {
		t.Fatalf("期望价格 120.25, 实际 %s", quote.Price.String())
	}
	if quote.TrailingEPS.Cmp(decimal.NewFromFloat(5.4)) != 0 {
		t.Fatalf("期望 EPS 5.4, 实际 %s", quote.TrailingEPS.String())
	}
}

func TestQuoteZeroPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"close": 0})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Quote(context.Background(), "ACME"); err == nil {
		t.Fatal("零价格应报错")
	}
}

func TestAnnualRevenueOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]map[string]string{
			"2024-12-31": {"date": "2024-12-31", "totalRevenue": "900000000"},
			"2025-12-31": {"date": "2025-12-31", "totalRevenue": "1200000000"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	periods, err := c.AnnualRevenue(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("期望 2 期, 实际 %d", len(periods))
	}
	if !periods[0].PeriodEnd.After(periods[1].PeriodEnd) {
		t.Fatal("营收应按期末倒序")
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Quote(context.Background(), "ACME"); err == nil {
		t.Fatal("HTTP 403 应返回错误")
	}
}
