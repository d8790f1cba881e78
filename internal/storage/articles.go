package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	getArticleSQL = `SELECT
        id,
        ticker,
        title,
        summary,
        author,
        full_text,
        published_at,
        created_at
    FROM articles
    WHERE id = $1;`

	listRecentArticlesByTickerSQL = `SELECT
        id,
        ticker,
        title,
        summary,
        author,
        full_text,
        published_at,
        created_at
    FROM articles
    WHERE ticker = $1
      AND published_at >= $2
    ORDER BY published_at;`

	insertArticleSQL = `INSERT INTO articles (
        id,
        ticker,
        title,
        summary,
        author,
        full_text,
        published_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (id) DO NOTHING;`
)

// GetArticle loads one article by id.
func (s *Store) GetArticle(ctx context.Context, id string) (Article, error) {
	pool, err := s.getPool()
	if err != nil {
		return Article{}, err
	}

	var a Article
	if scanErr := pool.QueryRow(ctx, getArticleSQL, id).Scan(
		&a.ID,
		&a.Ticker,
		&a.Title,
		&a.Summary,
		&a.Author,
		&a.FullText,
		&a.PublishedAt,
		&a.CreatedAt,
	); scanErr != nil {
		if scanErr == pgx.ErrNoRows {
			return Article{}, pgx.ErrNoRows
		}
		return Article{}, fmt.Errorf("get article: %w", scanErr)
	}
	return a, nil
}

// ListRecentArticlesByTicker lists a ticker's articles published at or after
// since, oldest first.
func (s *Store) ListRecentArticlesByTicker(ctx context.Context, ticker string, since time.Time) ([]Article, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentArticlesByTickerSQL, ticker, since)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent articles: %w", queryErr)
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		var a Article
		if err := rows.Scan(
			&a.ID,
			&a.Ticker,
			&a.Title,
			&a.Summary,
			&a.Author,
			&a.FullText,
			&a.PublishedAt,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return articles, nil
}

// InsertArticle persists one article. Re-inserting an existing id is a no-op.
func (s *Store) InsertArticle(ctx context.Context, a Article) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertArticleSQL,
		a.ID,
		a.Ticker,
		a.Title,
		a.Summary,
		a.Author,
		a.FullText,
		a.PublishedAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert article: %w", execErr)
	}
	return nil
}
