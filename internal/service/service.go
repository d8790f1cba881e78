package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketscholar/internal/alerting"
	"marketscholar/internal/config"
	"marketscholar/internal/coordination"
	"marketscholar/internal/credibility"
	"marketscholar/internal/decay"
	"marketscholar/internal/hype"
	"marketscholar/internal/marketdata"
	"marketscholar/internal/series"
	"marketscholar/internal/storage"
	"marketscholar/internal/valuation"
)

// Outcome verdicts persisted on evaluated calls.
const (
	VerdictPending   = "PENDING"
	VerdictCorrect   = "CORRECT"
	VerdictIncorrect = "INCORRECT"
)

// Lookback for the overreaction baseline. The fetch is wider than the
// velocity window so sparse trading weeks still fill it.
const overreactionLookbackDays = 60

// priceVelocityBars is the trailing window, in daily bars, over which the
// overreaction price velocity is measured.
const priceVelocityBars = 30

// minHistoryBars is the minimum number of candles a window must carry before
// the velocity math is trusted.
const minHistoryBars = 30

// Repository aggregates the persistence surface the scoring run needs.
type Repository interface {
	storage.NarrativeStore
	storage.SnapshotStore
	storage.DecayMetricsStore
	storage.AnalystStore
	storage.ArticleStore
}

// Service orchestrates decay scoring, credibility scoring, and alerting.
type Service struct {
	repo     Repository
	market   marketdata.Provider
	notifier alerting.Notifier
	logger   zerolog.Logger

	workers        int
	fairPE         float64
	articleWindow  time.Duration
	maturationDays int
	channels       []string
	alertsOn       bool
	locker         storage.AdvisoryLocker
	lockKey        int64
}

// New constructs the scoring service.
func New(cfg *config.Config, repo Repository, market marketdata.Provider, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := repo.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		repo:           repo,
		market:         market,
		notifier:       notifier,
		logger:         logger.With().Str("component", "service").Logger(),
		workers:        cfg.Scoring.Workers,
		fairPE:         cfg.Scoring.FairValuePE,
		articleWindow:  cfg.Scoring.ArticleWindow,
		maturationDays: cfg.Evaluation.MaturationDays,
		channels:       cfg.Alerting.Channels,
		alertsOn:       cfg.Alerting.Enabled,
		locker:         locker,
		lockKey:        cfg.Scheduler.AdvisoryLockKey,
	}
}

// ProcessBatch 执行单次全量评分批次。
func (s *Service) ProcessBatch(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip batch because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	if err := s.ProcessNarratives(ctx); err != nil {
		return err
	}
	return s.ProcessAnalysts(ctx)
}

// ProcessNarratives scores every tracked narrative. Per-narrative failures
// are logged and skipped so one bad history cannot stall the batch.
func (s *Service) ProcessNarratives(ctx context.Context) error {
	narratives, err := s.repo.ListNarratives(ctx)
	if err != nil {
		return fmt.Errorf("list narratives: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, narrative := range narratives {
		n := narrative
		g.Go(func() error {
			if err := s.scoreNarrative(gctx, n); err != nil {
				s.logger.Error().Err(err).
					Str("ticker", n.Ticker).
					Str("narrative", n.Name).
					Msg("narrative scoring failed")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) scoreNarrative(ctx context.Context, n storage.Narrative) error {
	snaps, err := s.repo.ListSnapshots(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snaps) < 2 {
		s.logger.Debug().Str("narrative", n.Name).Int("snapshots", len(snaps)).
			Msg("insufficient history, skipping")
		return nil
	}

	// The genesis-day observation comes from the narrative record; the first
	// snapshot duplicates it and is dropped.
	engine := decay.NewEngine(
		n.InitialSentiment,
		n.InitialPrice.InexactFloat64(),
		n.GenesisDate,
		snapshotSeries(snaps[1:]),
	)
	m := engine.Metrics()

	newStatus := string(m.Status)
	if newStatus != n.Status {
		if err := s.repo.UpdateNarrativeState(ctx, n.ID, newStatus); err != nil {
			return fmt.Errorf("update narrative state: %w", err)
		}
		s.logger.Info().Str("ticker", n.Ticker).Str("narrative", n.Name).
			Str("old_status", n.Status).Str("new_status", newStatus).
			Msg("narrative status changed")
		s.maybeAlert(ctx, n, m, newStatus)
	}

	metrics := storage.DecayMetrics{
		NarrativeID:          n.ID,
		CurrentSentiment:     m.CurrentSentiment,
		DaysElapsed:          m.DaysElapsed,
		DecayRate:            m.DecayRate.Ptr(),
		HalfLifeDays:         m.HalfLifeDays.Ptr(),
		Correlation:          m.Correlation.Ptr(),
		Status:               newStatus,
		ExhaustionConfidence: m.ExhaustionConfidence,
		PredictedExhaustion:  m.PredictedExhaustion,
		ComputedAt:           time.Now().UTC(),
	}
	if err := s.repo.UpsertDecayMetrics(ctx, metrics); err != nil {
		return fmt.Errorf("upsert decay metrics: %w", err)
	}

	// Decay percentages are backfilled only once a half-life exists, so early
	// noisy days never carry stale values.
	if m.HalfLifeDays.Valid() {
		for _, snap := range snaps {
			if snap.DecayPct != nil {
				continue
			}
			pct, ok := engine.SnapshotDecayPct(snap.Sentiment)
			if !ok {
				continue
			}
			if err := s.repo.UpdateSnapshotDecayPct(ctx, snap.ID, pct); err != nil {
				s.logger.Error().Err(err).Int64("snapshot_id", snap.ID).
					Msg("failed to backfill decay pct")
			}
		}
	}

	return nil
}

func (s *Service) maybeAlert(ctx context.Context, n storage.Narrative, m decay.Metrics, newStatus string) {
	if !s.alertsOn || s.notifier == nil {
		return
	}
	if newStatus != string(decay.StatusExhausted) && newStatus != string(decay.StatusFailed) {
		return
	}

	note := alerting.Notification{
		OccurredAt:           time.Now().UTC(),
		Ticker:               n.Ticker,
		Narrative:            n.Name,
		OldStatus:            n.Status,
		NewStatus:            newStatus,
		CurrentSentiment:     m.CurrentSentiment,
		HalfLifeDays:         m.HalfLifeDays.Ptr(),
		ExhaustionConfidence: m.ExhaustionConfidence,
		Channels:             s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("narrative", n.Name).Msg("failed to dispatch alert")
	}
}

// ProcessAnalysts recomputes the credibility scorecard for every tracked
// analyst against their primary ticker.
func (s *Service) ProcessAnalysts(ctx context.Context) error {
	analysts, err := s.repo.ListAnalysts(ctx)
	if err != nil {
		return fmt.Errorf("list analysts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, analyst := range analysts {
		a := analyst
		g.Go(func() error {
			if err := s.scoreAnalyst(gctx, a); err != nil {
				s.logger.Error().Err(err).Str("analyst", a.Name).Msg("analyst scoring failed")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) scoreAnalyst(ctx context.Context, a storage.Analyst) error {
	calls, err := s.repo.ListCallsByAnalyst(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("list calls: %w", err)
	}
	if len(calls) == 0 {
		s.logger.Debug().Str("analyst", a.Name).Msg("no calls, skipping")
		return nil
	}

	ticker := primaryTicker(calls)
	converted := convertCalls(calls)

	aar := credibility.AccuracyRate(converted)
	arb := credibility.Reliability(converted)
	ratio := s.overreactionRatio(ctx, ticker)
	premium := s.narrativePremium(ctx, ticker)
	hds := s.disciplineScore(ctx, calls)
	coord := s.coordinationScore(ctx, ticker)

	score := storage.AnalystScore{
		AnalystID:           a.ID,
		Ticker:              ticker,
		AccuracyRate:        aar,
		Reliability:         arb,
		DisciplineScore:     hds,
		CoordinationScore:   coord,
		CompositeScore:      credibility.CompositeScore(aar, arb, float64(hds), float64(coord)),
		OverreactionRatio:   ratio,
		ExtremeOverreaction: valuation.IsExtreme(ratio),
		PremiumPct:          premium.PremiumPct,
		ClaimConfidence:     credibility.ClaimConfidence(arb, float64(hds)),
		RiskTier:            credibility.RiskTier(ratio, coord),
		ComputedAt:          time.Now().UTC(),
	}
	if err := s.repo.UpsertAnalystScore(ctx, score); err != nil {
		return fmt.Errorf("upsert analyst score: %w", err)
	}

	s.logger.Info().Str("analyst", a.Name).Str("ticker", ticker).
		Float64("acs", score.CompositeScore).
		Msg("analyst scorecard updated")
	return nil
}

// overreactionRatio compares the 30-day price velocity against annual revenue
// velocity. Missing or thin market data degrades to the neutral 1.0.
func (s *Service) overreactionRatio(ctx context.Context, ticker string) float64 {
	now := time.Now().UTC()
	candles, err := s.market.DailyHistory(ctx, ticker, now.AddDate(0, 0, -overreactionLookbackDays), now)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("daily history unavailable, neutral overreaction")
		return 1.0
	}
	if len(candles) < priceVelocityBars {
		return 1.0
	}

	priceVelocity := valuation.PercentChange(
		candles[len(candles)-priceVelocityBars].Close.InexactFloat64(),
		candles[len(candles)-1].Close.InexactFloat64(),
	)

	periods, err := s.market.AnnualRevenue(ctx, ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("revenue unavailable, neutral overreaction")
		return 1.0
	}
	if len(periods) < 2 {
		return 1.0
	}

	fundamentalVelocity := valuation.PercentChange(
		periods[1].Revenue.InexactFloat64(),
		periods[0].Revenue.InexactFloat64(),
	)
	return valuation.OverreactionRatio(priceVelocity, fundamentalVelocity)
}

func (s *Service) narrativePremium(ctx context.Context, ticker string) valuation.Premium {
	quote, err := s.market.Quote(ctx, ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote unavailable, premium skipped")
		return valuation.Premium{}
	}
	return valuation.NarrativePremium(
		quote.Price.InexactFloat64(),
		quote.TrailingEPS.InexactFloat64(),
		s.fairPE,
	)
}

// disciplineScore grades the full text behind the analyst's latest call.
// Calls without an attached article fall back to the neutral score.
func (s *Service) disciplineScore(ctx context.Context, calls []storage.AnalystCall) int {
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].ArticleID == nil {
			continue
		}
		article, err := s.repo.GetArticle(ctx, *calls[i].ArticleID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				s.logger.Warn().Err(err).Str("article_id", *calls[i].ArticleID).Msg("article load failed")
			}
			continue
		}
		return hype.DisciplineScore(article.FullText)
	}
	return hype.NeutralScore
}

func (s *Service) coordinationScore(ctx context.Context, ticker string) int {
	narrative, err := s.repo.FirstNarrativeByTicker(ctx, ticker)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("narrative lookup failed")
		}
		return 0
	}

	since := time.Now().UTC().Add(-s.articleWindow)
	articles, err := s.repo.ListRecentArticlesByTicker(ctx, ticker, since)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("article window load failed")
		return 0
	}

	converted := make([]coordination.Article, len(articles))
	for i, a := range articles {
		converted[i] = coordination.Article{
			Title:       a.Title,
			Summary:     a.Summary,
			Author:      a.Author,
			PublishedAt: a.PublishedAt,
		}
	}
	return coordination.Score(converted, narrative.Name)
}

// EvaluateCalls matures pending analyst calls older than maturationDays,
// fetching the later price and recording the directional verdict exactly once.
func (s *Service) EvaluateCalls(ctx context.Context, maturationDays int) error {
	if maturationDays <= 0 {
		maturationDays = s.maturationDays
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -maturationDays)
	calls, err := s.repo.ListPendingCallsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list pending calls: %w", err)
	}

	evaluated := 0
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Fetch past the maturation window so weekends and holidays still
		// leave a usable closing price at the boundary.
		from := call.PublishedAt
		to := call.PublishedAt.AddDate(0, 0, maturationDays+7)
		candles, err := s.market.DailyHistory(ctx, call.Ticker, from, to)
		if err != nil {
			s.logger.Warn().Err(err).Str("call_id", call.ID).Msg("history unavailable, call stays pending")
			continue
		}
		if len(candles) < minHistoryBars {
			s.logger.Debug().Str("call_id", call.ID).Int("bars", len(candles)).
				Msg("window too thin, call stays pending")
			continue
		}

		priceLater := candles[len(candles)-1].Close.InexactFloat64()
		changePct, correct := credibility.EvaluateDirection(
			credibility.Sentiment(call.Sentiment),
			call.PriceAtPublish.InexactFloat64(),
			priceLater,
		)

		verdict := VerdictIncorrect
		if correct {
			verdict = VerdictCorrect
		}
		if err := s.repo.MarkCallEvaluated(ctx, call.ID, verdict, priceLater, changePct); err != nil {
			s.logger.Error().Err(err).Str("call_id", call.ID).Msg("failed to record verdict")
			continue
		}
		evaluated++
	}

	s.logger.Info().Int("pending", len(calls)).Int("evaluated", evaluated).
		Msg("call evaluation pass complete")
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

func snapshotSeries(snaps []storage.Snapshot) series.Series {
	out := make(series.Series, len(snaps))
	for i, snap := range snaps {
		out[i] = series.Point{
			Date:      snap.SnapshotDate,
			Sentiment: snap.Sentiment,
			Price:     snap.Price.InexactFloat64(),
			Volume:    snap.Volume,
		}
	}
	return out
}

// primaryTicker is the ticker the analyst covers most; ties break toward the
// earliest covered.
func primaryTicker(calls []storage.AnalystCall) string {
	counts := make(map[string]int, len(calls))
	best := calls[0].Ticker
	for _, call := range calls {
		counts[call.Ticker]++
		if counts[call.Ticker] > counts[best] {
			best = call.Ticker
		}
	}
	return best
}

func convertCalls(calls []storage.AnalystCall) []credibility.Call {
	out := make([]credibility.Call, len(calls))
	for i, call := range calls {
		outcome := credibility.OutcomePending
		if call.Evaluated {
			outcome = credibility.OutcomeEvaluated
		}
		out[i] = credibility.Call{
			Ticker:             call.Ticker,
			PublishedAt:        call.PublishedAt,
			Type:               credibility.CallType(call.CallType),
			Sentiment:          credibility.Sentiment(call.Sentiment),
			Outcome:            outcome,
			DirectionalCorrect: call.OutcomeStatus == VerdictCorrect,
		}
	}
	return out
}
