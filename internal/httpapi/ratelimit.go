package httpapi

import (
	"net"
	"net/http"
	"sync"

	"contentproc/internal/ratelimit"
)

// category names the five rate-limit buckets from §6.
type category string

const (
	categoryRead       category = "read"
	categoryWrite      category = "write"
	categoryAIGen      category = "ai_generation"
	categorySimilarity category = "similarity"
	categoryHealth     category = "health"
)

var categoryRPM = map[category]int{
	categoryRead:       100,
	categoryWrite:      30,
	categoryAIGen:      10,
	categorySimilarity: 20,
	categoryHealth:     1000,
}

// limiterRegistry hands out one ratelimit.Window per (category,
// identity) pair, created lazily and kept for the process lifetime —
// mirroring the shared-singleton discipline the spec requires for
// rate-limit windows (§5, shared-resource policy).
type limiterRegistry struct {
	mu       sync.Mutex
	windows  map[string]*ratelimit.Window
}

func newLimiterRegistry() *limiterRegistry {
	return &limiterRegistry{windows: make(map[string]*ratelimit.Window)}
}

func (l *limiterRegistry) windowFor(cat category, identity string) *ratelimit.Window {
	key := string(cat) + ":" + identity
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok {
		w = ratelimit.NewWindow(key, categoryRPM[cat])
		l.windows[key] = w
	}
	return w
}

// rateLimit builds middleware enforcing cat's per-minute budget, keyed
// by the authenticated key id if present, else by client IP.
func (l *limiterRegistry) rateLimit(cat category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFor(r)
			window := l.windowFor(cat, identity)
			if !window.Allow() {
				writeError(w, r, window.ErrRateLimit())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFor(r *http.Request) string {
	if info := keyInfoFromContext(r.Context()); info != nil {
		return info.KeyID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
