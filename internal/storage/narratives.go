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
	listNarrativesSQL = `SELECT
        id,
        ticker,
        name,
        status,
        initial_sentiment,
        initial_price,
        genesis_date,
        created_at,
        updated_at
    FROM narratives
    ORDER BY created_at;`

	getNarrativeSQL = `SELECT
        id,
        ticker,
        name,
        status,
        initial_sentiment,
        initial_price,
        genesis_date,
        created_at,
        updated_at
    FROM narratives
    WHERE id = $1;`

	findNarrativeSQL = `SELECT
        id,
        ticker,
        name,
        status,
        initial_sentiment,
        initial_price,
        genesis_date,
        created_at,
        updated_at
    FROM narratives
    WHERE ticker = $1 AND name = $2;`

	firstNarrativeByTickerSQL = `SELECT
        id,
        ticker,
        name,
        status,
        initial_sentiment,
        initial_price,
        genesis_date,
        created_at,
        updated_at
    FROM narratives
    WHERE ticker = $1
    ORDER BY genesis_date
    LIMIT 1;`

	createNarrativeSQL = `INSERT INTO narratives (
        id,
        ticker,
        name,
        status,
        initial_sentiment,
        initial_price,
        genesis_date
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    );`

	updateNarrativeStateSQL = `UPDATE narratives
    SET status = $2, updated_at = now()
    WHERE id = $1;`

	listSnapshotsSQL = `SELECT
        id,
        narrative_id,
        snapshot_date,
        sentiment,
        price,
        volume,
        decay_pct,
        created_at
    FROM narrative_snapshots
    WHERE narrative_id = $1
    ORDER BY snapshot_date;`

	insertSnapshotSQL = `INSERT INTO narrative_snapshots (
        narrative_id,
        snapshot_date,
        sentiment,
        price,
        volume
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (narrative_id, snapshot_date) DO UPDATE
    SET sentiment = EXCLUDED.sentiment,
        price     = EXCLUDED.price,
        volume    = EXCLUDED.volume;`

	updateSnapshotDecayPctSQL = `UPDATE narrative_snapshots
    SET decay_pct = $2
    WHERE id = $1;`

	upsertDecayMetricsSQL = `INSERT INTO narrative_decay_metrics (
        narrative_id,
        current_sentiment,
        days_elapsed,
        decay_rate,
        half_life_days,
        correlation,
        status,
        exhaustion_confidence,
        predicted_exhaustion,
        computed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    ON CONFLICT (narrative_id) DO UPDATE
    SET current_sentiment     = EXCLUDED.current_sentiment,
        days_elapsed          = EXCLUDED.days_elapsed,
        decay_rate            = EXCLUDED.decay_rate,
        half_life_days        = EXCLUDED.half_life_days,
        correlation           = EXCLUDED.correlation,
        status                = EXCLUDED.status,
        exhaustion_confidence = EXCLUDED.exhaustion_confidence,
        predicted_exhaustion  = EXCLUDED.predicted_exhaustion,
        computed_at           = EXCLUDED.computed_at;`

	listRecentDecayMetricsSQL = `SELECT
        narrative_id,
        current_sentiment,
        days_elapsed,
        decay_rate,
        half_life_days,
        correlation,
        status,
        exhaustion_confidence,
        predicted_exhaustion,
        computed_at
    FROM narrative_decay_metrics
    ORDER BY computed_at DESC
    LIMIT $1;`
)

// ListNarratives lists all tracked narratives ordered by creation time.
func (s *Store) ListNarratives(ctx context.Context) ([]Narrative, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listNarrativesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list narratives: %w", queryErr)
	}
	defer rows.Close()

	narratives := make([]Narrative, 0)
	for rows.Next() {
		n, scanErr := scanNarrative(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		narratives = append(narratives, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return narratives, nil
}

// GetNarrative loads one narrative by id.
func (s *Store) GetNarrative(ctx context.Context, id string) (Narrative, error) {
	return s.queryNarrative(ctx, getNarrativeSQL, id)
}

// FindNarrative loads one narrative by ticker and name.
func (s *Store) FindNarrative(ctx context.Context, ticker, name string) (Narrative, error) {
	return s.queryNarrative(ctx, findNarrativeSQL, ticker, name)
}

// FirstNarrativeByTicker loads the oldest narrative tracked for a ticker.
func (s *Store) FirstNarrativeByTicker(ctx context.Context, ticker string) (Narrative, error) {
	return s.queryNarrative(ctx, firstNarrativeByTickerSQL, ticker)
}

func (s *Store) queryNarrative(ctx context.Context, query string, args ...any) (Narrative, error) {
	pool, err := s.getPool()
	if err != nil {
		return Narrative{}, err
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return Narrative{}, fmt.Errorf("query narrative: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return Narrative{}, rows.Err()
		}
		return Narrative{}, pgx.ErrNoRows
	}
	return scanNarrative(rows)
}

// CreateNarrative persists a new narrative.
func (s *Store) CreateNarrative(ctx context.Context, n Narrative) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, createNarrativeSQL,
		n.ID,
		n.Ticker,
		n.Name,
		n.Status,
		n.InitialSentiment,
		n.InitialPrice.String(),
		n.GenesisDate,
	)
	if execErr != nil {
		return fmt.Errorf("create narrative: %w", execErr)
	}
	return nil
}

// UpdateNarrativeState moves a narrative to a new lifecycle status.
func (s *Store) UpdateNarrativeState(ctx context.Context, id, status string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, updateNarrativeStateSQL, id, status)
	if execErr != nil {
		return fmt.Errorf("update narrative state: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListSnapshots lists a narrative's snapshots ordered by date ascending.
func (s *Store) ListSnapshots(ctx context.Context, narrativeID string) ([]Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsSQL, narrativeID)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap     Snapshot
			priceStr string
			decayPct sql.NullFloat64
		)
		if err := rows.Scan(
			&snap.ID,
			&snap.NarrativeID,
			&snap.SnapshotDate,
			&snap.Sentiment,
			&priceStr,
			&snap.Volume,
			&decayPct,
			&snap.CreatedAt,
		); err != nil {
			return nil, err
		}

		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse snapshot price: %w", convErr)
		}
		snap.Price = price
		if decayPct.Valid {
			value := decayPct.Float64
			snap.DecayPct = &value
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// InsertSnapshot persists or updates one daily snapshot.
func (s *Store) InsertSnapshot(ctx context.Context, snap Snapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertSnapshotSQL,
		snap.NarrativeID,
		snap.SnapshotDate,
		snap.Sentiment,
		snap.Price.String(),
		snap.Volume,
	)
	if execErr != nil {
		return fmt.Errorf("insert snapshot: %w", execErr)
	}
	return nil
}

// UpdateSnapshotDecayPct backfills the decay percentage on one snapshot.
func (s *Store) UpdateSnapshotDecayPct(ctx context.Context, id int64, decayPct float64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, updateSnapshotDecayPctSQL, id, decayPct)
	if execErr != nil {
		return fmt.Errorf("update snapshot decay pct: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertDecayMetrics persists the latest computed decay state for a narrative.
func (s *Store) UpsertDecayMetrics(ctx context.Context, m DecayMetrics) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var decayRate, halfLife, correlation interface{}
	if m.DecayRate != nil {
		decayRate = *m.DecayRate
	}
	if m.HalfLifeDays != nil {
		halfLife = *m.HalfLifeDays
	}
	if m.Correlation != nil {
		correlation = *m.Correlation
	}

	var predicted interface{}
	if m.PredictedExhaustion != nil {
		predicted = *m.PredictedExhaustion
	}

	computedAt := m.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}

	_, execErr := pool.Exec(ctx, upsertDecayMetricsSQL,
		m.NarrativeID,
		m.CurrentSentiment,
		m.DaysElapsed,
		decayRate,
		halfLife,
		correlation,
		m.Status,
		m.ExhaustionConfidence,
		predicted,
		computedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert decay metrics: %w", execErr)
	}
	return nil
}

// ListRecentDecayMetrics lists the most recently computed decay metrics.
func (s *Store) ListRecentDecayMetrics(ctx context.Context, limit int) ([]DecayMetrics, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentDecayMetricsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent decay metrics: %w", queryErr)
	}
	defer rows.Close()

	metrics := make([]DecayMetrics, 0, limit)
	for rows.Next() {
		var (
			m           DecayMetrics
			decayRate   sql.NullFloat64
			halfLife    sql.NullFloat64
			correlation sql.NullFloat64
			predicted   sql.NullTime
		)
		if err := rows.Scan(
			&m.NarrativeID,
			&m.CurrentSentiment,
			&m.DaysElapsed,
			&decayRate,
			&halfLife,
			&correlation,
			&m.Status,
			&m.ExhaustionConfidence,
			&predicted,
			&m.ComputedAt,
		); err != nil {
			return nil, err
		}

		if decayRate.Valid {
			value := decayRate.Float64
			m.DecayRate = &value
		}
		if halfLife.Valid {
			value := halfLife.Float64
			m.HalfLifeDays = &value
		}
		if correlation.Valid {
			value := correlation.Float64
			m.Correlation = &value
		}
		if predicted.Valid {
			value := predicted.Time
			m.PredictedExhaustion = &value
		}
		metrics = append(metrics, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return metrics, nil
}

func scanNarrative(rows pgx.Rows) (Narrative, error) {
	var (
		n        Narrative
		priceStr string
	)
	if err := rows.Scan(
		&n.ID,
		&n.Ticker,
		&n.Name,
		&n.Status,
		&n.InitialSentiment,
		&priceStr,
		&n.GenesisDate,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return Narrative{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Narrative{}, fmt.Errorf("parse initial price: %w", err)
	}
	n.InitialPrice = price
	return n, nil
}
