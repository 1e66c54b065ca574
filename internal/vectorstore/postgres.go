package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentproc/internal/apperrors"
)

// PostgresStore is the persistent VectorStore backend, grounded on the
// teacher's PgVectorAdapter (internal/vectorstore/pgvector.go) but
// rebuilt on jackc/pgx/v5 against the generic documents table instead
// of the article/tag schema. Vectors are still passed as "[...]" text
// literals (formatVector) with a "::vector" cast in the SQL, as the
// lib/pq adapter did.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the documents table and its HNSW index if they
// don't already exist. Idempotent, mirrors the teacher's CreateIndex.
func (p *PostgresStore) EnsureSchema(ctx context.Context, dimension int) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, dimension))
	if err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS documents_embedding_hnsw_idx
		ON documents USING hnsw (embedding vector_cosine_ops)
		WITH (m = 16, ef_construction = 64);
	`)
	if err != nil {
		return fmt.Errorf("ensure hnsw index: %w", err)
	}
	return nil
}

func formatVector(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}

func (p *PostgresStore) Add(ctx context.Context, doc Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (id, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3::vector, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`, doc.ID, doc.Content, formatVector(doc.Embedding), metadata, doc.CreatedAt)
	if err != nil {
		return "", wrapPgError("add document", err)
	}
	return doc.ID, nil
}

func (p *PostgresStore) AddBatch(ctx context.Context, docs []Document) ([]string, error) {
	ids := make([]string, 0, len(docs))
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, wrapPgError("begin batch add", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now().UTC()
		}
		metadata, err := json.Marshal(d.Metadata)
		if err != nil {
			return ids, fmt.Errorf("marshal metadata: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO documents (id, content, embedding, metadata, created_at)
			VALUES ($1, $2, $3::vector, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata
		`, d.ID, d.Content, formatVector(d.Embedding), metadata, d.CreatedAt)
		if err != nil {
			return ids, wrapPgError("batch add document", err)
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return ids, wrapPgError("commit batch add", err)
	}
	return ids, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Document, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, content, embedding, metadata, created_at
		FROM documents WHERE id = $1
	`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if ce, ok := apperrors.As(err); ok && ce.Code == apperrors.CodeNotFound {
			return nil, errNotFound(id)
		}
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) Update(ctx context.Context, id string, doc Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE documents SET content = $2, embedding = $3::vector, metadata = $4
		WHERE id = $1
	`, id, doc.Content, formatVector(doc.Embedding), metadata)
	if err != nil {
		return wrapPgError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound(id)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return wrapPgError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound(id)
	}
	return nil
}

func (p *PostgresStore) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filterToSQL(filter)
	var count int
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM documents "+where, args...).Scan(&count)
	if err != nil {
		return 0, wrapPgError("count documents", err)
	}
	return count, nil
}

// SimilaritySearch pushes the distance computation into Postgres via
// pgvector's <=> cosine-distance operator, mirroring the teacher's
// Search method, then converts distance back to the similarity score
// used throughout the rest of the codebase (similarity = 1 - distance).
func (p *PostgresStore) SimilaritySearch(ctx context.Context, query []float64, k int, filter Filter, threshold float64) ([]Result, error) {
	where, args := filterToSQL(filter)
	queryVec := formatVector(query)
	args = append(args, queryVec, 1-threshold, k)

	q := fmt.Sprintf(`
		SELECT id, content, embedding, metadata, created_at,
		       embedding <=> $%d::vector AS distance
		FROM documents
		%s
		%s embedding <=> $%d::vector <= $%d
		ORDER BY distance ASC, created_at ASC
		LIMIT $%d
	`, len(args)-2, where, whereConjunction(where), len(args)-2, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapPgError("similarity search", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			id, content string
			embedding   []float32
			metadataRaw []byte
			createdAt   time.Time
			distance    float64
		)
		if err := rows.Scan(&id, &content, &embedding, &metadataRaw, &createdAt, &distance); err != nil {
			return nil, wrapPgError("scan similarity row", err)
		}
		var metadata map[string]any
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		results = append(results, Result{
			Document: Document{
				ID: id, Content: content, Embedding: float32To64(embedding),
				Metadata: metadata, CreatedAt: createdAt,
			},
			Distance:   distance,
			Similarity: 1 - distance,
		})
	}
	return results, rows.Err()
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE documents`)
	if err != nil {
		return wrapPgError("clear documents", err)
	}
	return nil
}

func (p *PostgresStore) Healthcheck(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func whereConjunction(where string) string {
	if where == "" {
		return "WHERE"
	}
	return "AND"
}

// filterToSQL translates the flat Filter grammar into a JSONB predicate.
// List-valued expected values use JSONB containment (?|) for the
// "non-empty intersection" rule; scalars use ->> equality. Unlike the
// in-memory matcher this pushes the work to Postgres, but preserves the
// same fail-closed semantics: an unknown key still yields zero rows
// because the ->> lookup returns NULL and NULL = $n is never true.
func filterToSQL(filter Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	i := 1
	for key, expected := range filter {
		switch v := expected.(type) {
		case []string:
			args = append(args, v)
			clauses = append(clauses, fmt.Sprintf("metadata -> '%s' ?| $%d", key, i))
			i++
		default:
			args = append(args, fmt.Sprintf("%v", v))
			clauses = append(clauses, fmt.Sprintf("metadata ->> '%s' = $%d", key, i))
			i++
		}
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanDocument(row pgx.Row) (*Document, error) {
	var (
		id, content string
		embedding   []float32
		metadataRaw []byte
		createdAt   time.Time
	)
	if err := row.Scan(&id, &content, &embedding, &metadataRaw, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errNotFound("")
		}
		return nil, wrapPgError("scan document", err)
	}
	var metadata map[string]any
	if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &Document{ID: id, Content: content, Embedding: float32To64(embedding), Metadata: metadata, CreatedAt: createdAt}, nil
}

func float32To64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func wrapPgError(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeInternal, op, err)
}

var _ Store = (*PostgresStore)(nil)
