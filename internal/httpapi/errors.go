// Package httpapi is the HTTP boundary (§6): request/response mapping,
// auth, rate limiting, and the JSON error envelope, over the chi router
// and middleware stack the teacher's internal/server package already
// uses. This is the only layer that translates apperrors codes into
// status codes and JSON bodies — components below it return errors
// (usually apperrors.CodedError values) and never choose status codes.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"contentproc/internal/apperrors"
)

// errorEnvelope is the wire shape every error response shares (§7).
type errorEnvelope struct {
	ErrorCode  string         `json:"error_code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	RetryAfter int            `json:"retry_after,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
}

// writeError maps err to a status code via apperrors and writes the
// JSON envelope. A bare (non-CodedError) err is never echoed verbatim
// to the client; it becomes a generic internal-error message instead,
// so component internals never leak through the boundary.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	env := errorEnvelope{
		ErrorCode: string(apperrors.CodeInternal),
		Message:   "internal error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}
	if ce, ok := apperrors.As(err); ok {
		env.ErrorCode = string(ce.Code)
		env.Message = ce.Message
		env.Details = ce.Details
		env.RetryAfter = ce.RetryAfter
	}
	if env.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(env.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
