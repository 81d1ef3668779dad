package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// Postgres is the Store implementation backing production deployments.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and bootstraps the
// schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.ensure(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensure(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS articles (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    source_url TEXT NOT NULL,
    source_name TEXT NOT NULL,
    published_time TIMESTAMPTZ NOT NULL,
    dedupe_key TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS articles_feed_order_idx ON articles (published_time DESC, id DESC);
CREATE INDEX IF NOT EXISTS articles_source_idx ON articles (source_name);
`)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

func (p *Postgres) InsertArticle(ctx context.Context, a models.Article) (models.Article, bool, error) {
	// ON CONFLICT DO NOTHING makes check-and-insert a single atomic
	// statement; two overlapping cycles cannot both insert the same key.
	err := p.db.QueryRowContext(ctx, `
INSERT INTO articles (title, summary, source_url, source_name, published_time, dedupe_key)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (dedupe_key) DO NOTHING
RETURNING id`,
		a.Title, a.Summary, a.SourceURL, a.SourceName, a.PublishedTime, a.DedupeKey,
	).Scan(&a.ID)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Article{}, false, fmt.Errorf("inserting article: %w", err)
	}

	existing, err := p.byDedupeKey(ctx, a.DedupeKey)
	if err != nil {
		return models.Article{}, false, err
	}
	return existing, false, nil
}

func (p *Postgres) byDedupeKey(ctx context.Context, key string) (models.Article, error) {
	var a models.Article
	err := p.db.QueryRowContext(ctx, `
SELECT id, title, summary, source_url, source_name, published_time, dedupe_key
FROM articles WHERE dedupe_key = $1`, key,
	).Scan(&a.ID, &a.Title, &a.Summary, &a.SourceURL, &a.SourceName, &a.PublishedTime, &a.DedupeKey)
	if err != nil {
		return models.Article{}, fmt.Errorf("loading duplicate article: %w", err)
	}
	return a, nil
}

func (p *Postgres) ListArticles(ctx context.Context, page, perPage int, source string) ([]models.Article, int, error) {
	var (
		total int
		err   error
	)
	if source != "" {
		err = p.db.QueryRowContext(ctx, `SELECT count(*) FROM articles WHERE source_name = $1`, source).Scan(&total)
	} else {
		err = p.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("counting articles: %w", err)
	}

	if page < 1 || perPage < 1 {
		return nil, total, nil
	}
	offset := (page - 1) * perPage

	var rows *sql.Rows
	if source != "" {
		rows, err = p.db.QueryContext(ctx, `
SELECT id, title, summary, source_url, source_name, published_time, dedupe_key
FROM articles WHERE source_name = $1
ORDER BY published_time DESC, id DESC
LIMIT $2 OFFSET $3`, source, perPage, offset)
	} else {
		rows, err = p.db.QueryContext(ctx, `
SELECT id, title, summary, source_url, source_name, published_time, dedupe_key
FROM articles
ORDER BY published_time DESC, id DESC
LIMIT $1 OFFSET $2`, perPage, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var out []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.SourceURL, &a.SourceName, &a.PublishedTime, &a.DedupeKey); err != nil {
			return nil, 0, fmt.Errorf("scanning article: %w", err)
		}
		a.PublishedTime = a.PublishedTime.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating articles: %w", err)
	}
	return out, total, nil
}

func (p *Postgres) Stats(ctx context.Context) (models.Stats, error) {
	var (
		stats  models.Stats
		latest sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
SELECT count(*), count(DISTINCT source_name), max(published_time) FROM articles`,
	).Scan(&stats.TotalArticles, &stats.SourcesCount, &latest)
	if err != nil {
		return models.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	if latest.Valid {
		t := latest.Time.UTC()
		stats.LatestUpdate = &t
	}
	return stats, nil
}

func (p *Postgres) SourceNames(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT source_name FROM articles ORDER BY source_name`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return names, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error { return p.db.Close() }
