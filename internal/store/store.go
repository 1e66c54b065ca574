// Package store implements the relational persistence side of the
// pipeline orchestrator's ArticleStore boundary: articles, summaries,
// and QAPairs in Postgres via jackc/pgx/v5. Grounded on the teacher's
// own internal/store (a local SQLite cache) and internal/persistence
// (repository-per-entity Postgres layer) — adapted from SQLite/
// lib/pq to a single pgxpool-backed store matching the spec's data
// model instead of the teacher's digest/newsletter schema.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentproc/internal/apperrors"
	"contentproc/internal/core"
)

// Store is the Postgres-backed ArticleStore implementation consumed by
// internal/pipeline.Orchestrator.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the articles/summaries/qa_pairs tables if they
// don't already exist, mirroring the teacher's migration-on-boot style
// (NewPostgresDB pings then assumes schema exists; this module owns its
// own minimal migration instead of requiring an external tool).
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			cleaned_text TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'en',
			word_count INT NOT NULL DEFAULT 0,
			domain TEXT NOT NULL DEFAULT '',
			crawled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			status TEXT NOT NULL DEFAULT 'ok'
		);
		CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			summary_text TEXT NOT NULL,
			key_points JSONB NOT NULL DEFAULT '[]',
			title TEXT NOT NULL DEFAULT '',
			embedding JSONB NOT NULL DEFAULT '[]',
			model_used TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS qa_pairs (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			keyword_anchor TEXT NOT NULL DEFAULT '',
			probability DOUBLE PRECISION NOT NULL DEFAULT 0,
			ordering_index INT NOT NULL DEFAULT 0,
			embedding JSONB NOT NULL DEFAULT '[]',
			click_count BIGINT NOT NULL DEFAULT 0,
			last_clicked_at TIMESTAMPTZ,
			degraded BOOLEAN NOT NULL DEFAULT false
		);
		CREATE INDEX IF NOT EXISTS qa_pairs_article_id_idx ON qa_pairs(article_id);
	`)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "ensure schema failed", err)
	}
	return nil
}

func (s *Store) GetByURL(ctx context.Context, url string) (*core.Article, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, url, title, cleaned_text, language, word_count, domain, crawled_at, status
		FROM articles WHERE url = $1
	`, url)

	var a core.Article
	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.CleanedText, &a.Language, &a.WordCount, &a.Domain, &a.CrawledAt, &a.Status)
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.CodeNotFound, "article not found for url: "+url)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "get article by url failed", err)
	}
	return &a, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*core.Article, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, url, title, cleaned_text, language, word_count, domain, crawled_at, status
		FROM articles WHERE id = $1
	`, id)

	var a core.Article
	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.CleanedText, &a.Language, &a.WordCount, &a.Domain, &a.CrawledAt, &a.Status)
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.CodeNotFound, "article not found: "+id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "get article failed", err)
	}
	return &a, nil
}

func (s *Store) Put(ctx context.Context, article core.Article) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO articles (id, url, title, cleaned_text, language, word_count, domain, crawled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title, cleaned_text = EXCLUDED.cleaned_text,
			language = EXCLUDED.language, word_count = EXCLUDED.word_count,
			domain = EXCLUDED.domain, crawled_at = EXCLUDED.crawled_at, status = EXCLUDED.status
	`, article.ID, article.URL, article.Title, article.CleanedText, article.Language,
		article.WordCount, article.Domain, article.CrawledAt, article.Status)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "persist article failed", err)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, articleID, status string) error {
	_, err := s.pool.Exec(ctx, `UPDATE articles SET status = $2 WHERE id = $1`, articleID, status)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "set article status failed", err)
	}
	return nil
}

func (s *Store) PutSummary(ctx context.Context, summary core.Summary) error {
	keyPoints, err := json.Marshal(summary.KeyPoints)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "marshal key points failed", err)
	}
	embedding, err := json.Marshal(summary.Embedding.Vector)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "marshal summary embedding failed", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO summaries (id, article_id, summary_text, key_points, title, embedding, model_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			summary_text = EXCLUDED.summary_text, key_points = EXCLUDED.key_points,
			title = EXCLUDED.title, embedding = EXCLUDED.embedding, model_used = EXCLUDED.model_used
	`, summary.ID, summary.ArticleID, summary.Text, keyPoints, summary.Title, embedding, summary.ModelUsed, summary.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "persist summary failed", err)
	}
	return nil
}

func (s *Store) GetSummaryByArticleID(ctx context.Context, articleID string) (*core.Summary, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, article_id, summary_text, key_points, title, embedding, model_used, created_at
		FROM summaries WHERE article_id = $1
	`, articleID)

	var sm core.Summary
	var keyPoints, embedding []byte
	err := row.Scan(&sm.ID, &sm.ArticleID, &sm.Text, &keyPoints, &sm.Title, &embedding, &sm.ModelUsed, &sm.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.CodeNotFound, "summary not found for article: "+articleID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "get summary failed", err)
	}
	_ = json.Unmarshal(keyPoints, &sm.KeyPoints)
	_ = json.Unmarshal(embedding, &sm.Embedding.Vector)
	return &sm, nil
}

func (s *Store) PutQAPairs(ctx context.Context, pairs []core.QAPair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "begin qa_pairs tx failed", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range pairs {
		embedding, err := json.Marshal(p.Embedding.Vector)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "marshal question embedding failed", err)
		}
		var lastClicked any
		if !p.LastClickedAt.IsZero() {
			lastClicked = p.LastClickedAt
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO qa_pairs (id, article_id, question, answer, keyword_anchor, probability, ordering_index, embedding, click_count, last_clicked_at, degraded)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				question = EXCLUDED.question, answer = EXCLUDED.answer,
				keyword_anchor = EXCLUDED.keyword_anchor, probability = EXCLUDED.probability,
				embedding = EXCLUDED.embedding, degraded = EXCLUDED.degraded
		`, p.ID, p.ArticleID, p.Question, p.Answer, p.KeywordAnchor, p.Probability,
			p.OrderingIndex, embedding, p.ClickCount, lastClicked, p.Degraded)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "persist qa_pair failed", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "commit qa_pairs tx failed", err)
	}
	return nil
}

// GetQAPairsByArticleID returns the article's QAPairs ordered by
// ordering_index ascending, truncated to limit (0 means unlimited).
func (s *Store) GetQAPairsByArticleID(ctx context.Context, articleID string, limit int) ([]core.QAPair, error) {
	query := `
		SELECT id, article_id, question, answer, keyword_anchor, probability, ordering_index,
		       embedding, click_count, last_clicked_at, degraded
		FROM qa_pairs WHERE article_id = $1 ORDER BY ordering_index ASC`
	args := []any{articleID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "query qa_pairs failed", err)
	}
	defer rows.Close()

	var pairs []core.QAPair
	for rows.Next() {
		var p core.QAPair
		var embedding []byte
		var lastClicked *time.Time
		if err := rows.Scan(&p.ID, &p.ArticleID, &p.Question, &p.Answer, &p.KeywordAnchor,
			&p.Probability, &p.OrderingIndex, &embedding, &p.ClickCount, &lastClicked, &p.Degraded); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "scan qa_pair failed", err)
		}
		_ = json.Unmarshal(embedding, &p.Embedding.Vector)
		if lastClicked != nil {
			p.LastClickedAt = *lastClicked
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *Store) GetQAPairByID(ctx context.Context, id string) (*core.QAPair, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, article_id, question, answer, keyword_anchor, probability, ordering_index,
		       embedding, click_count, last_clicked_at, degraded
		FROM qa_pairs WHERE id = $1
	`, id)

	var p core.QAPair
	var embedding []byte
	var lastClicked *time.Time
	err := row.Scan(&p.ID, &p.ArticleID, &p.Question, &p.Answer, &p.KeywordAnchor,
		&p.Probability, &p.OrderingIndex, &embedding, &p.ClickCount, &lastClicked, &p.Degraded)
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.CodeNotFound, "question not found: "+id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "get qa_pair failed", err)
	}
	_ = json.Unmarshal(embedding, &p.Embedding.Vector)
	if lastClicked != nil {
		p.LastClickedAt = *lastClicked
	}
	return &p, nil
}

// RecordClick atomically increments click_count and sets
// last_clicked_at, returning the new count, per §4.9.
func (s *Store) RecordClick(ctx context.Context, id string) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE qa_pairs SET click_count = click_count + 1, last_clicked_at = now()
		WHERE id = $1
		RETURNING click_count
	`, id)

	var count int64
	if err := row.Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, apperrors.New(apperrors.CodeNotFound, "question not found: "+id)
		}
		return 0, apperrors.Wrap(apperrors.CodeInternal, "record click failed", err)
	}
	return count, nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeServiceUnavailable, "store healthcheck failed", err)
	}
	return nil
}
