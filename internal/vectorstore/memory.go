package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentproc/internal/logger"
	"contentproc/internal/similarity"
)

// MemoryStore is the in-memory, authoritative VectorStore backend: the
// correctness reference every other backend's behavior is checked
// against. Single-writer/many-readers per §5 — structural mutations
// take the exclusive lock, searches take the shared lock.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]Document
	dimension int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Add(ctx context.Context, doc Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if m.dimension == 0 && len(m.docs) == 0 {
		m.dimension = len(doc.Embedding)
	} else if len(doc.Embedding) != m.dimension {
		return "", ErrDimensionMismatch(len(doc.Embedding), m.dimension)
	}

	if _, exists := m.docs[doc.ID]; exists {
		logger.Warn("overwriting existing vector document", "id", doc.ID)
	}
	m.docs[doc.ID] = doc
	return doc.ID, nil
}

func (m *MemoryStore) AddBatch(ctx context.Context, docs []Document) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, err := m.Add(ctx, d)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return &doc, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return errNotFound(id)
	}
	if len(doc.Embedding) != m.dimension && len(doc.Embedding) != 0 {
		return ErrDimensionMismatch(len(doc.Embedding), m.dimension)
	}
	doc.ID = id
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = m.docs[id].CreatedAt
	}
	m.docs[id] = doc
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return errNotFound(id)
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(filter) == 0 {
		return len(m.docs), nil
	}
	count := 0
	for _, d := range m.docs {
		if matches(d.Metadata, filter) {
			count++
		}
	}
	return count, nil
}

// SimilaritySearch computes the candidate set via the metadata filter
// (if provided), scores each candidate by cosine similarity, filters by
// threshold, and returns the top-k sorted descending; ties broken by
// older CreatedAt first.
func (m *MemoryStore) SimilaritySearch(ctx context.Context, query []float64, k int, filter Filter, threshold float64) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		doc   Document
		score float64
	}
	var candidates []scored

	for _, d := range m.docs {
		if len(filter) > 0 && !matches(d.Metadata, filter) {
			continue
		}
		score, err := similarity.Cosine(query, d.Embedding)
		if err != nil {
			return nil, err
		}
		if score >= threshold {
			candidates = append(candidates, scored{doc: d, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.CreatedAt.Before(candidates[j].doc.CreatedAt)
	})

	if k > 0 && k < len(candidates) {
		candidates = candidates[:k]
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{Document: c.doc, Similarity: c.score, Distance: 1 - c.score}
	}
	return results, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]Document)
	m.dimension = 0
	return nil
}

func (m *MemoryStore) Healthcheck(ctx context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
