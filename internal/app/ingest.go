package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"marketscholar/internal/credibility"
	"marketscholar/internal/decay"
	"marketscholar/internal/marketdata"
	"marketscholar/internal/series"
	"marketscholar/internal/storage"
	"marketscholar/internal/valuation"
)

const ingestDateLayout = "2006-01-02"

// Ingest 从 CSV 文件加载快照、分析师喊单与文章。
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	if opts.SnapshotsPath == "" && opts.CallsPath == "" && opts.ArticlesPath == "" {
		return errors.New("at least one of --snapshots, --calls or --articles must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn 未配置，无法导入")
	}
	defer closeStore()

	if opts.ArticlesPath != "" {
		count, err := a.ingestArticles(ctx, store, opts.ArticlesPath)
		if err != nil {
			return fmt.Errorf("ingest articles: %w", err)
		}
		a.Logger.Info().Int("rows", count).Str("path", opts.ArticlesPath).Msg("articles imported")
	}

	if opts.SnapshotsPath != "" {
		count, err := a.ingestSnapshots(ctx, store, opts.SnapshotsPath)
		if err != nil {
			return fmt.Errorf("ingest snapshots: %w", err)
		}
		a.Logger.Info().Int("rows", count).Str("path", opts.SnapshotsPath).Msg("snapshots imported")
	}

	if opts.CallsPath != "" {
		count, err := a.ingestCalls(ctx, store, opts.CallsPath)
		if err != nil {
			return fmt.Errorf("ingest calls: %w", err)
		}
		a.Logger.Info().Int("rows", count).Str("path", opts.CallsPath).Msg("calls imported")
	}

	return nil
}

// ingestSnapshots expects columns:
// ticker,narrative,snapshot_date,sentiment,price,volume
// An unseen ticker+narrative pair creates the narrative, with the first row
// supplying the genesis observation.
func (a *App) ingestSnapshots(ctx context.Context, store *storage.Store, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	narratives := make(map[string]storage.Narrative)
	count := 0
	for i, row := range rows {
		if len(row) < 6 {
			return count, fmt.Errorf("row %d: expected 6 columns, got %d", i+1, len(row))
		}

		ticker, name := row[0], row[1]
		date, err := time.Parse(ingestDateLayout, row[2])
		if err != nil {
			return count, fmt.Errorf("row %d: parse date: %w", i+1, err)
		}
		sentiment, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return count, fmt.Errorf("row %d: parse sentiment: %w", i+1, err)
		}
		price, err := decimal.NewFromString(row[4])
		if err != nil {
			return count, fmt.Errorf("row %d: parse price: %w", i+1, err)
		}
		volume, err := strconv.ParseInt(row[5], 10, 64)
		if err != nil {
			return count, fmt.Errorf("row %d: parse volume: %w", i+1, err)
		}

		key := ticker + "\x00" + name
		narrative, seen := narratives[key]
		if !seen {
			narrative, err = a.resolveNarrative(ctx, store, ticker, name, sentiment, price, date)
			if err != nil {
				return count, err
			}
			narratives[key] = narrative
		}

		snap := storage.Snapshot{
			NarrativeID:  narrative.ID,
			SnapshotDate: date,
			Sentiment:    sentiment,
			Price:        price,
			Volume:       volume,
		}
		if err := store.InsertSnapshot(ctx, snap); err != nil {
			return count, fmt.Errorf("row %d: %w", i+1, err)
		}
		count++
	}
	return count, nil
}

func (a *App) resolveNarrative(ctx context.Context, store *storage.Store, ticker, name string, sentiment float64, price decimal.Decimal, date time.Time) (storage.Narrative, error) {
	narrative, err := store.FindNarrative(ctx, ticker, name)
	if err == nil {
		return narrative, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storage.Narrative{}, err
	}

	narrative = storage.Narrative{
		ID:               uuid.NewString(),
		Ticker:           ticker,
		Name:             name,
		Status:           string(decay.StatusActive),
		InitialSentiment: sentiment,
		InitialPrice:     price,
		GenesisDate:      date,
	}
	if err := store.CreateNarrative(ctx, narrative); err != nil {
		return storage.Narrative{}, err
	}
	a.Logger.Info().Str("ticker", ticker).Str("narrative", name).Msg("narrative created")
	return narrative, nil
}

// ingestCalls expects columns:
// analyst,firm,ticker,call_type,sentiment,price_at_publish,published_at[,article_id]
func (a *App) ingestCalls(ctx context.Context, store *storage.Store, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	// Pre-publication suspicion needs market history; without a token the
	// calls are stored without it.
	var provider marketdata.Provider
	if a.Config.Market.APIToken != "" {
		provider = a.newProvider()
	}

	analysts := make(map[string]storage.Analyst)
	count := 0
	for i, row := range rows {
		if len(row) < 7 {
			return count, fmt.Errorf("row %d: expected at least 7 columns, got %d", i+1, len(row))
		}

		name, firm := row[0], row[1]
		price, err := decimal.NewFromString(row[5])
		if err != nil {
			return count, fmt.Errorf("row %d: parse price: %w", i+1, err)
		}
		published, err := time.Parse(time.RFC3339, row[6])
		if err != nil {
			return count, fmt.Errorf("row %d: parse published_at: %w", i+1, err)
		}

		analyst, seen := analysts[name]
		if !seen {
			analyst, err = a.resolveAnalyst(ctx, store, name, firm)
			if err != nil {
				return count, err
			}
			analysts[name] = analyst
		}

		call := storage.AnalystCall{
			ID:             uuid.NewString(),
			AnalystID:      analyst.ID,
			Ticker:         row[2],
			CallType:       row[3],
			Sentiment:      row[4],
			PriceAtPublish: price,
			PublishedAt:    published,
		}
		if len(row) > 7 && row[7] != "" {
			articleID := row[7]
			call.ArticleID = &articleID
		}
		if provider != nil {
			if score, ok := a.suspicionScore(ctx, provider, call.Ticker, published); ok {
				call.SuspicionScore = &score
			}
		}
		if err := store.InsertCall(ctx, call); err != nil {
			return count, fmt.Errorf("row %d: %w", i+1, err)
		}
		count++
	}
	return count, nil
}

func (a *App) resolveAnalyst(ctx context.Context, store *storage.Store, name, firm string) (storage.Analyst, error) {
	analyst, err := store.FindAnalyst(ctx, name)
	if err == nil {
		return analyst, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storage.Analyst{}, err
	}

	analyst = storage.Analyst{
		ID:   uuid.NewString(),
		Name: name,
		Firm: firm,
	}
	if err := store.CreateAnalyst(ctx, analyst); err != nil {
		return storage.Analyst{}, err
	}
	a.Logger.Info().Str("analyst", name).Msg("analyst created")
	return analyst, nil
}

// suspicionScore grades 30-day pre-publication market activity against the 60
// days before that. Thin or unavailable windows yield no score, never a
// default.
func (a *App) suspicionScore(ctx context.Context, provider marketdata.Provider, ticker string, published time.Time) (int, bool) {
	candles, err := provider.DailyHistory(ctx, ticker, published.AddDate(0, 0, -90), published)
	if err != nil {
		a.Logger.Warn().Err(err).Str("ticker", ticker).Msg("prepub history unavailable, suspicion skipped")
		return 0, false
	}

	split := published.AddDate(0, 0, -30)
	var baseline, prepub []marketdata.Candle
	for _, c := range candles {
		if c.Date.Before(split) {
			baseline = append(baseline, c)
		} else {
			prepub = append(prepub, c)
		}
	}
	if len(baseline) < 20 || len(prepub) < 10 {
		return 0, false
	}

	baseVolume := meanVolume(baseline)
	baseVolatility := series.StdDev(closingPrices(baseline))
	if baseVolume == 0 || baseVolatility == 0 {
		return 0, false
	}

	volumeRatio := meanVolume(prepub) / baseVolume
	priceChangePct := valuation.PercentChange(
		prepub[0].Close.InexactFloat64(),
		prepub[len(prepub)-1].Close.InexactFloat64(),
	)
	volatilityRatio := series.StdDev(closingPrices(prepub)) / baseVolatility

	return credibility.SuspicionScore(volumeRatio, priceChangePct, volatilityRatio), true
}

func meanVolume(candles []marketdata.Candle) float64 {
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = float64(c.Volume)
	}
	return series.Mean(volumes)
}

func closingPrices(candles []marketdata.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
	}
	return closes
}

// ingestArticles expects columns:
// id,ticker,title,summary,author,published_at,full_text
// An empty id gets a freshly minted one.
func (a *App) ingestArticles(ctx context.Context, store *storage.Store, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	count := 0
	for i, row := range rows {
		if len(row) < 7 {
			return count, fmt.Errorf("row %d: expected 7 columns, got %d", i+1, len(row))
		}

		published, err := time.Parse(time.RFC3339, row[5])
		if err != nil {
			return count, fmt.Errorf("row %d: parse published_at: %w", i+1, err)
		}

		id := row[0]
		if id == "" {
			id = uuid.NewString()
		}

		article := storage.Article{
			ID:          id,
			Ticker:      row[1],
			Title:       row[2],
			Summary:     row[3],
			Author:      row[4],
			FullText:    row[6],
			PublishedAt: published,
		}
		if err := store.InsertArticle(ctx, article); err != nil {
			return count, fmt.Errorf("row %d: %w", i+1, err)
		}
		count++
	}
	return count, nil
}

// readCSV loads all records, skipping a header row when the first cell does
// not parse as data.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if looksLikeHeader(row) {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		if cell == "ticker" || cell == "analyst" || cell == "id" {
			return true
		}
	}
	return false
}
