package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// NarrativeStore defines operations for narrative persistence.
type NarrativeStore interface {
	ListNarratives(ctx context.Context) ([]Narrative, error)
	GetNarrative(ctx context.Context, id string) (Narrative, error)
	FindNarrative(ctx context.Context, ticker, name string) (Narrative, error)
	FirstNarrativeByTicker(ctx context.Context, ticker string) (Narrative, error)
	CreateNarrative(ctx context.Context, n Narrative) error
	UpdateNarrativeState(ctx context.Context, id, status string) error
}

// SnapshotStore defines operations for daily snapshot persistence.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, narrativeID string) ([]Snapshot, error)
	InsertSnapshot(ctx context.Context, snap Snapshot) error
	UpdateSnapshotDecayPct(ctx context.Context, id int64, decayPct float64) error
}

// DecayMetricsStore defines operations for computed decay state.
type DecayMetricsStore interface {
	UpsertDecayMetrics(ctx context.Context, m DecayMetrics) error
	ListRecentDecayMetrics(ctx context.Context, limit int) ([]DecayMetrics, error)
}

// AnalystStore defines operations for analyst tracking.
type AnalystStore interface {
	ListAnalysts(ctx context.Context) ([]Analyst, error)
	FindAnalyst(ctx context.Context, name string) (Analyst, error)
	CreateAnalyst(ctx context.Context, a Analyst) error
	InsertCall(ctx context.Context, call AnalystCall) error
	ListCallsByAnalyst(ctx context.Context, analystID string) ([]AnalystCall, error)
	ListPendingCallsBefore(ctx context.Context, publishedBefore time.Time) ([]AnalystCall, error)
	MarkCallEvaluated(ctx context.Context, id, outcome string, priceLater, changePct float64) error
	UpsertAnalystScore(ctx context.Context, score AnalystScore) error
	ListRecentAnalystScores(ctx context.Context, limit int) ([]AnalystScore, error)
}

// ArticleStore defines operations for article persistence.
type ArticleStore interface {
	GetArticle(ctx context.Context, id string) (Article, error)
	ListRecentArticlesByTicker(ctx context.Context, ticker string, since time.Time) ([]Article, error)
	InsertArticle(ctx context.Context, a Article) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to narratives, analysts and articles.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

var (
	_ NarrativeStore    = (*Store)(nil)
	_ SnapshotStore     = (*Store)(nil)
	_ DecayMetricsStore = (*Store)(nil)
	_ AnalystStore      = (*Store)(nil)
	_ ArticleStore      = (*Store)(nil)
	_ AdvisoryLocker    = (*Store)(nil)
)
