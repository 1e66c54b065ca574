package llmprovider

import (
	"fmt"
	"strings"

	"contentproc/internal/apperrors"
)

func unknownKindError(kind Kind) error {
	return apperrors.New(apperrors.CodeInvalidRequest, fmt.Sprintf("unknown LLM provider kind %q", kind))
}

// classifyProviderError maps a raw provider SDK error into the §7
// ProviderError subtree by inspecting its message for the substrings
// each SDK uses for auth/quota/model/network/timeout failures. SDKs in
// this pack don't expose typed sentinel errors for every case, so
// substring inspection mirrors what the spec's taxonomy prescribes.
func classifyProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return apperrors.Wrap(apperrors.CodeTimeout, provider+" request timed out", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return apperrors.Wrap(apperrors.CodeProviderAuth, provider+" authentication failed", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return apperrors.Wrap(apperrors.CodeProviderQuota, provider+" quota or rate limit exceeded", err)
	case strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "404")):
		return apperrors.Wrap(apperrors.CodeModelNotFound, provider+" model not found", err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid request") || strings.Contains(msg, "invalid_request"):
		return apperrors.Wrap(apperrors.CodeInvalidRequest, provider+" rejected the request", err)
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "dial tcp") || strings.Contains(msg, "eof"):
		return apperrors.Wrap(apperrors.CodeNetwork, provider+" network error", err)
	default:
		return apperrors.Wrap(apperrors.CodeNetwork, provider+" request failed", err)
	}
}
