// Package embeddings implements the uniform embedding provider
// capability set (C3): hosted (OpenAI/Gemini), local/lazy-load, and a
// deterministic hash fallback. Grounded on internal/llm.Client's
// GenerateEmbedding (Matryoshka output dimensionality, byte-for-byte
// conversion from the SDK's float32 vectors) and cagent's
// CreateBatchEmbedding batching/limit-checking style.
package embeddings

import (
	"context"

	"contentproc/internal/apperrors"
	"contentproc/internal/similarity"
)

// Provider is the capability set every embedding backend implements.
type Provider interface {
	Name() string
	Model() string
	Dimension() int
	Generate(ctx context.Context, text string) ([]float64, error)
	GenerateBatch(ctx context.Context, texts []string) ([][]float64, error)
	Healthcheck(ctx context.Context) bool
	EstimateCost(texts []string) float64 // USD
}

const maxBatchSize = 100

// estimateTokens approximates token count as words * 1.3, per the
// spec's stated approximation (§9: exact tokenizers not specified).
func estimateTokens(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return int(float64(words) * 1.3)
}

// errInputTooLarge builds the taxonomy error for an over-budget input.
func errInputTooLarge(tokens, limit int) error {
	return apperrors.New(apperrors.CodeValidation, "input exceeds provider token limit").
		WithDetails(map[string]any{"estimated_tokens": tokens, "limit": limit})
}

// normalizeIfRequested L2-normalizes v when normalize is true.
func normalizeIfRequested(v []float64, normalize bool) []float64 {
	if !normalize {
		return v
	}
	return similarity.Normalize(v)
}

// batches splits texts into chunks of at most maxBatchSize, preserving
// order, per the hosted-provider pagination contract.
func batches(texts []string) [][]string {
	var out [][]string
	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[i:end])
	}
	return out
}
