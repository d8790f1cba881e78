package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one end-of-day observation for a ticker.
type Candle struct {
	Date   time.Time
	Close  decimal.Decimal
	Volume int64
}

// Quote is the current price plus trailing earnings for a ticker.
type Quote struct {
	Price       decimal.Decimal
	TrailingEPS decimal.Decimal
}

// RevenuePeriod is one reported annual revenue figure.
type RevenuePeriod struct {
	PeriodEnd time.Time
	Revenue   decimal.Decimal
}

// Provider retrieves ticker-level market data. Implementations wrap external
// feeds; failures are recoverable per entity, the orchestrator skips the
// ticker for the run and moves on.
type Provider interface {
	// DailyHistory returns end-of-day candles in [from, to), ordered by date.
	DailyHistory(ctx context.Context, ticker string, from, to time.Time) ([]Candle, error)
	// Quote returns the latest price and trailing EPS.
	Quote(ctx context.Context, ticker string) (Quote, error)
	// AnnualRevenue returns reported annual revenue, most recent first.
	AnnualRevenue(ctx context.Context, ticker string) ([]RevenuePeriod, error)
}
