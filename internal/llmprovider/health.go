package llmprovider

import (
	"context"
	"sync"
	"time"
)

const healthCacheTTL = 300 * time.Second

// HealthCache caches ValidateConnection results per provider for up to
// 300s, grounded on the ProviderRecord.last_health field described in
// the spec's data model and on the centralized-breaker-status style of
// blog_manager/core/resilience.py's ServiceCircuitBreakers (health is
// cached alongside breaker state rather than probed on every call).
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

// Healthy returns the cached health for provider name, calling
// ValidateConnection to refresh it if the cache entry is stale or
// absent.
func (h *HealthCache) Healthy(ctx context.Context, p Provider) bool {
	h.mu.Lock()
	entry, ok := h.entries[p.Name()]
	h.mu.Unlock()

	if ok && time.Since(entry.checkedAt) < healthCacheTTL {
		return entry.healthy
	}

	healthy := p.ValidateConnection(ctx) == nil
	h.mu.Lock()
	h.entries[p.Name()] = healthEntry{healthy: healthy, checkedAt: time.Now()}
	h.mu.Unlock()
	return healthy
}

// Snapshot returns the last-known health per provider without probing,
// used by /health endpoints.
func (h *HealthCache) Snapshot() map[string]bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]bool, len(h.entries))
	for name, e := range h.entries {
		out[name] = e.healthy
	}
	return out
}
