package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	listAnalystsSQL = `SELECT
        id,
        name,
        firm,
        created_at
    FROM analysts
    ORDER BY name;`

	findAnalystSQL = `SELECT
        id,
        name,
        firm,
        created_at
    FROM analysts
    WHERE name = $1;`

	createAnalystSQL = `INSERT INTO analysts (
        id,
        name,
        firm
    ) VALUES (
        $1,$2,$3
    );`

	insertCallSQL = `INSERT INTO analyst_calls (
        id,
        analyst_id,
        ticker,
        call_type,
        sentiment,
        price_at_publish,
        published_at,
        article_id,
        suspicion_score
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (id) DO NOTHING;`

	listCallsByAnalystSQL = `SELECT
        id,
        analyst_id,
        ticker,
        call_type,
        sentiment,
        price_at_publish,
        published_at,
        article_id,
        suspicion_score,
        evaluated,
        outcome_status,
        price_later,
        change_pct,
        created_at
    FROM analyst_calls
    WHERE analyst_id = $1
    ORDER BY published_at;`

	listPendingCallsBeforeSQL = `SELECT
        id,
        analyst_id,
        ticker,
        call_type,
        sentiment,
        price_at_publish,
        published_at,
        article_id,
        suspicion_score,
        evaluated,
        outcome_status,
        price_later,
        change_pct,
        created_at
    FROM analyst_calls
    WHERE evaluated = FALSE
      AND published_at < $1
    ORDER BY published_at;`

	markCallEvaluatedSQL = `UPDATE analyst_calls
    SET evaluated      = TRUE,
        outcome_status = $2,
        price_later    = $3,
        change_pct     = $4
    WHERE id = $1
      AND evaluated = FALSE;`

	upsertAnalystScoreSQL = `INSERT INTO analyst_scores (
        analyst_id,
        ticker,
        accuracy_rate,
        reliability,
        discipline_score,
        coordination_score,
        composite_score,
        overreaction_ratio,
        extreme_overreaction,
        premium_pct,
        claim_confidence,
        risk_tier,
        computed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    )
    ON CONFLICT (analyst_id, ticker) DO UPDATE
    SET accuracy_rate        = EXCLUDED.accuracy_rate,
        reliability          = EXCLUDED.reliability,
        discipline_score     = EXCLUDED.discipline_score,
        coordination_score   = EXCLUDED.coordination_score,
        composite_score      = EXCLUDED.composite_score,
        overreaction_ratio   = EXCLUDED.overreaction_ratio,
        extreme_overreaction = EXCLUDED.extreme_overreaction,
        premium_pct          = EXCLUDED.premium_pct,
        claim_confidence     = EXCLUDED.claim_confidence,
        risk_tier            = EXCLUDED.risk_tier,
        computed_at          = EXCLUDED.computed_at;`

	listRecentAnalystScoresSQL = `SELECT
        analyst_id,
        ticker,
        accuracy_rate,
        reliability,
        discipline_score,
        coordination_score,
        composite_score,
        overreaction_ratio,
        extreme_overreaction,
        premium_pct,
        claim_confidence,
        risk_tier,
        computed_at
    FROM analyst_scores
    ORDER BY computed_at DESC
    LIMIT $1;`
)

// ListAnalysts lists tracked analysts ordered by name.
func (s *Store) ListAnalysts(ctx context.Context) ([]Analyst, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAnalystsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list analysts: %w", queryErr)
	}
	defer rows.Close()

	analysts := make([]Analyst, 0)
	for rows.Next() {
		var a Analyst
		if err := rows.Scan(&a.ID, &a.Name, &a.Firm, &a.CreatedAt); err != nil {
			return nil, err
		}
		analysts = append(analysts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return analysts, nil
}

// FindAnalyst loads one analyst by name.
func (s *Store) FindAnalyst(ctx context.Context, name string) (Analyst, error) {
	pool, err := s.getPool()
	if err != nil {
		return Analyst{}, err
	}

	var a Analyst
	if scanErr := pool.QueryRow(ctx, findAnalystSQL, name).Scan(
		&a.ID, &a.Name, &a.Firm, &a.CreatedAt,
	); scanErr != nil {
		if scanErr == pgx.ErrNoRows {
			return Analyst{}, pgx.ErrNoRows
		}
		return Analyst{}, fmt.Errorf("find analyst: %w", scanErr)
	}
	return a, nil
}

// CreateAnalyst persists a new analyst.
func (s *Store) CreateAnalyst(ctx context.Context, a Analyst) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, createAnalystSQL, a.ID, a.Name, a.Firm); execErr != nil {
		return fmt.Errorf("create analyst: %w", execErr)
	}
	return nil
}

// InsertCall persists one analyst call. Re-inserting an existing id is a no-op.
func (s *Store) InsertCall(ctx context.Context, call AnalystCall) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var articleID interface{}
	if call.ArticleID != nil {
		articleID = *call.ArticleID
	}
	var suspicion interface{}
	if call.SuspicionScore != nil {
		suspicion = *call.SuspicionScore
	}

	_, execErr := pool.Exec(ctx, insertCallSQL,
		call.ID,
		call.AnalystID,
		call.Ticker,
		call.CallType,
		call.Sentiment,
		call.PriceAtPublish.String(),
		call.PublishedAt,
		articleID,
		suspicion,
	)
	if execErr != nil {
		return fmt.Errorf("insert call: %w", execErr)
	}
	return nil
}

// ListCallsByAnalyst lists an analyst's calls ordered by publish time.
func (s *Store) ListCallsByAnalyst(ctx context.Context, analystID string) ([]AnalystCall, error) {
	return s.queryCalls(ctx, listCallsByAnalystSQL, analystID)
}

// ListPendingCallsBefore lists unevaluated calls published before the cutoff.
func (s *Store) ListPendingCallsBefore(ctx context.Context, publishedBefore time.Time) ([]AnalystCall, error) {
	return s.queryCalls(ctx, listPendingCallsBeforeSQL, publishedBefore)
}

func (s *Store) queryCalls(ctx context.Context, query string, args ...any) ([]AnalystCall, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("query calls: %w", queryErr)
	}
	defer rows.Close()

	calls := make([]AnalystCall, 0)
	for rows.Next() {
		call, scanErr := scanCall(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		calls = append(calls, call)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return calls, nil
}

// MarkCallEvaluated records a call's outcome. Already-evaluated calls are
// never rewritten.
func (s *Store) MarkCallEvaluated(ctx context.Context, id, outcome string, priceLater, changePct float64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, markCallEvaluatedSQL, id, outcome, priceLater, changePct)
	if execErr != nil {
		return fmt.Errorf("mark call evaluated: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertAnalystScore persists the latest scorecard for an analyst/ticker pair.
func (s *Store) UpsertAnalystScore(ctx context.Context, score AnalystScore) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	computedAt := score.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}

	_, execErr := pool.Exec(ctx, upsertAnalystScoreSQL,
		score.AnalystID,
		score.Ticker,
		score.AccuracyRate,
		score.Reliability,
		score.DisciplineScore,
		score.CoordinationScore,
		score.CompositeScore,
		score.OverreactionRatio,
		score.ExtremeOverreaction,
		score.PremiumPct,
		score.ClaimConfidence,
		score.RiskTier,
		computedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert analyst score: %w", execErr)
	}
	return nil
}

// ListRecentAnalystScores lists the most recently computed scorecards.
func (s *Store) ListRecentAnalystScores(ctx context.Context, limit int) ([]AnalystScore, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAnalystScoresSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent analyst scores: %w", queryErr)
	}
	defer rows.Close()

	scores := make([]AnalystScore, 0, limit)
	for rows.Next() {
		var score AnalystScore
		if err := rows.Scan(
			&score.AnalystID,
			&score.Ticker,
			&score.AccuracyRate,
			&score.Reliability,
			&score.DisciplineScore,
			&score.CoordinationScore,
			&score.CompositeScore,
			&score.OverreactionRatio,
			&score.ExtremeOverreaction,
			&score.PremiumPct,
			&score.ClaimConfidence,
			&score.RiskTier,
			&score.ComputedAt,
		); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return scores, nil
}

func scanCall(rows pgx.Rows) (AnalystCall, error) {
	var (
		call       AnalystCall
		priceStr   string
		articleID  sql.NullString
		suspicion  sql.NullInt64
		priceLater sql.NullString
		changePct  sql.NullFloat64
	)
	if err := rows.Scan(
		&call.ID,
		&call.AnalystID,
		&call.Ticker,
		&call.CallType,
		&call.Sentiment,
		&priceStr,
		&call.PublishedAt,
		&articleID,
		&suspicion,
		&call.Evaluated,
		&call.OutcomeStatus,
		&priceLater,
		&changePct,
		&call.CreatedAt,
	); err != nil {
		return AnalystCall{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return AnalystCall{}, fmt.Errorf("parse call price: %w", err)
	}
	call.PriceAtPublish = price

	if articleID.Valid {
		value := articleID.String
		call.ArticleID = &value
	}
	if suspicion.Valid {
		value := int(suspicion.Int64)
		call.SuspicionScore = &value
	}
	if priceLater.Valid {
		later, convErr := decimal.NewFromString(priceLater.String)
		if convErr != nil {
			return AnalystCall{}, fmt.Errorf("parse later price: %w", convErr)
		}
		call.PriceLater = &later
	}
	if changePct.Valid {
		value := changePct.Float64
		call.ChangePct = &value
	}
	return call, nil
}
