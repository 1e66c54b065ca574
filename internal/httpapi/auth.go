package httpapi

import (
	"context"
	"net/http"

	"contentproc/internal/apperrors"
)

// APIKeyInfo is the contract returned by the external key-management
// collaborator for a valid key (§6): the core only consumes this
// shape, it never issues or stores keys itself.
type APIKeyInfo struct {
	KeyID            string
	Scopes           []string // subset of {read, write, admin}
	RateLimitPerMin  int
}

// KeyValidator resolves an X-API-Key header value to its key info.
// The production implementation calls out to the key-management
// service; tests and local runs can supply a static map-backed one.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (*APIKeyInfo, error)
}

type ctxKey int

const ctxKeyInfo ctxKey = iota

func keyInfoFromContext(ctx context.Context) *APIKeyInfo {
	info, _ := ctx.Value(ctxKeyInfo).(*APIKeyInfo)
	return info
}

func hasScope(info *APIKeyInfo, scope string) bool {
	if info == nil {
		return false
	}
	for _, s := range info.Scopes {
		if s == scope || s == "admin" {
			return true
		}
	}
	return false
}

// requireScope builds middleware that validates X-API-Key via
// validator then rejects requests whose key lacks scope.
func requireScope(validator KeyValidator, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeError(w, r, apperrors.New(apperrors.CodeAuthFailed, "missing X-API-Key header"))
				return
			}
			info, err := validator.Validate(r.Context(), key)
			if err != nil {
				writeError(w, r, apperrors.Wrap(apperrors.CodeAuthFailed, "invalid API key", err))
				return
			}
			if !hasScope(info, scope) {
				writeError(w, r, apperrors.New(apperrors.CodePermissionDenied, "API key lacks required scope: "+scope))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyInfo, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticKeyValidator is a fixed in-memory KeyValidator, useful for
// local runs and tests where standing up the external key-management
// collaborator isn't worthwhile.
type StaticKeyValidator struct {
	Keys map[string]APIKeyInfo
}

func (v StaticKeyValidator) Validate(ctx context.Context, apiKey string) (*APIKeyInfo, error) {
	info, ok := v.Keys[apiKey]
	if !ok {
		return nil, apperrors.New(apperrors.CodeAuthFailed, "unknown API key")
	}
	return &info, nil
}
