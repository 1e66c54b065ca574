// Package vectorstore implements the vector store (C5): add/get/
// update/delete/count/similarity_search/clear/healthcheck over an
// in-memory authoritative backend and a persistent pgvector backend.
// Grounded on the teacher's VectorStore interface shape
// (internal/vectorstore/vectorstore.go) and its PgVectorAdapter SQL
// style, generalized from article-only tag search to the spec's
// generic VectorDocument + flat metadata filter grammar.
package vectorstore

import (
	"context"
	"time"

	"contentproc/internal/apperrors"
)

// Document is {id, content, embedding, metadata}. ID is stable;
// re-adding the same id overwrites the stored document. MemoryStore
// logs a WARN when it does; PostgresStore upserts without logging.
type Document struct {
	ID        string
	Content   string
	Embedding []float64
	Metadata  map[string]any
	CreatedAt time.Time
}

// Filter is the flat metadata filter grammar (§4.5): field -> value or
// []value. List-valued expected values on list-valued metadata fields
// mean "non-empty intersection"; scalar-to-scalar is equality; unknown
// key fails closed (matches nothing).
type Filter map[string]any

// Result pairs a matched document with its similarity score.
type Result struct {
	Document   Document
	Similarity float64
	Distance   float64
}

// Store is the operation set every backend implements.
type Store interface {
	Add(ctx context.Context, doc Document) (string, error)
	AddBatch(ctx context.Context, docs []Document) ([]string, error)
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, id string, doc Document) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter Filter) (int, error)
	SimilaritySearch(ctx context.Context, query []float64, k int, filter Filter, threshold float64) ([]Result, error)
	Clear(ctx context.Context) error
	Healthcheck(ctx context.Context) error
}

// ErrDimensionMismatch is returned when a document's embedding length
// doesn't match the dimension fixed by the store's first Add.
func ErrDimensionMismatch(got, want int) error {
	return apperrors.New(apperrors.CodeDimensionMismatch, "embedding dimension mismatch").
		WithDetails(map[string]any{"got": got, "want": want})
}

func errNotFound(id string) error {
	return apperrors.New(apperrors.CodeNotFound, "document not found: "+id)
}
