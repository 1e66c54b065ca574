package embeddings

import (
	"context"
	"sync"
	"time"
)

const healthCacheTTL = 300 * time.Second

// HealthCache mirrors internal/llmprovider.HealthCache for embedding
// providers; kept as a separate small type rather than a shared generic
// so each package stays self-contained per its own Provider interface.
type HealthCache struct {
	mu      sync.Mutex
	entries map[string]healthEntry
}

type healthEntry struct {
	healthy   bool
	checkedAt time.Time
}

func NewHealthCache() *HealthCache {
	return &HealthCache{entries: make(map[string]healthEntry)}
}

func (h *HealthCache) Healthy(ctx context.Context, p Provider) bool {
	h.mu.Lock()
	entry, ok := h.entries[p.Name()]
	h.mu.Unlock()

	if ok && time.Since(entry.checkedAt) < healthCacheTTL {
		return entry.healthy
	}

	healthy := p.Healthcheck(ctx)
	h.mu.Lock()
	h.entries[p.Name()] = healthEntry{healthy: healthy, checkedAt: time.Now()}
	h.mu.Unlock()
	return healthy
}

func (h *HealthCache) Snapshot() map[string]bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]bool, len(h.entries))
	for name, e := range h.entries {
		out[name] = e.healthy
	}
	return out
}
