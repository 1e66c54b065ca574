package httpapi

import (
	"net/http"

	"contentproc/internal/cache"
)

// healthReport is the shared body for all three health endpoints: an
// overall status plus a per-dependency circuit-breaker snapshot (§6).
type healthReport struct {
	Status   string                 `json:"status"`
	Breakers map[string]breakerView `json:"breakers,omitempty"`
}

type breakerView struct {
	State            string `json:"state"`
	ConsecutiveFails int    `json:"consecutive_fails"`
}

func (h *Handlers) breakerSnapshot() map[string]breakerView {
	out := make(map[string]breakerView)
	if h.llm != nil {
		for name, st := range h.llm.Stats() {
			out["llm:"+name] = breakerView{State: st.State.String(), ConsecutiveFails: st.ConsecutiveFails}
		}
	}
	if h.embed != nil {
		for name, st := range h.embed.Stats() {
			out["embedding:"+name] = breakerView{State: st.State.String(), ConsecutiveFails: st.ConsecutiveFails}
		}
	}
	return out
}

// handleHealth reports overall status and every dependency's breaker
// state, degrading to "degraded" (never 5xx) when any breaker is not
// closed (open or half-open).
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := h.breakerSnapshot()
	status := "ok"
	for _, b := range snapshot {
		if b.State != "closed" {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, healthReport{Status: status, Breakers: snapshot})
}

// handleHealthLive is a liveness probe: the process is up and serving.
func (h *Handlers) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthReport{Status: "ok"})
}

// handleHealthReady additionally checks the cache dependency is
// reachable before reporting ready.
func (h *Handlers) handleHealthReady(c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if rc, ok := c.(*cache.RedisCache); ok {
			if err := rc.Healthcheck(r.Context()); err != nil {
				status = "not_ready"
			}
		}
		writeJSON(w, http.StatusOK, healthReport{Status: status, Breakers: h.breakerSnapshot()})
	}
}
