package orchestrator

import (
	"context"
	"time"

	"contentproc/internal/apperrors"
	"contentproc/internal/breaker"
	"contentproc/internal/embeddings"
	"contentproc/internal/ratelimit"
	"contentproc/internal/similarity"
	"contentproc/internal/textproc"
)

// embeddingTokenBudget bounds how many estimated tokens a single
// provider call is trusted to accept before the chunk-averaging policy
// kicks in; conservative relative to any one provider's real limit
// since it must hold across whichever provider ends up serving the
// chunk.
const embeddingTokenBudget = 2000

type embeddingEntry struct {
	provider embeddings.Provider
	breaker  *breaker.Breaker
	limiter  *ratelimit.Window
}

// EmbeddingOrchestrator is the C6 chain for the embedding capability.
type EmbeddingOrchestrator struct {
	chain       []embeddingEntry
	health      *embeddings.HealthCache
	callTimeout time.Duration
}

func NewEmbeddingOrchestrator(providers []embeddings.Provider, rpm int) *EmbeddingOrchestrator {
	o := &EmbeddingOrchestrator{health: embeddings.NewHealthCache(), callTimeout: defaultCallTimeout}
	for _, p := range providers {
		o.chain = append(o.chain, embeddingEntry{
			provider: p,
			breaker:  breaker.New(p.Name(), 5, 60*time.Second),
			limiter:  ratelimit.NewWindow(p.Name(), rpm),
		})
	}
	return o
}

// Embed routes a single text through the chain per §4.6 steps 1-7. If
// the text is estimated to exceed the embedding token budget, it falls
// back to the chunk-averaging policy instead of calling a provider
// directly.
func (o *EmbeddingOrchestrator) Embed(ctx context.Context, text string) ([]float64, error) {
	if estimateTokensApprox(text) > embeddingTokenBudget {
		return o.embedChunked(ctx, text)
	}
	return o.embedOnce(ctx, text)
}

func (o *EmbeddingOrchestrator) embedOnce(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for _, e := range o.chain {
		if !e.breaker.Allow() {
			lastErr = breaker.ErrServiceUnavailable(e.provider.Name())
			continue
		}
		if !o.health.Healthy(ctx, e.provider) {
			continue
		}
		if !e.limiter.Allow() {
			lastErr = e.limiter.ErrRateLimit()
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		vec, err := e.provider.Generate(callCtx, text)
		cancel()

		if err != nil {
			e.breaker.RecordFailure()
			lastErr = err
			continue
		}
		e.breaker.RecordSuccess()
		return vec, nil
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.CodeServiceUnavailable, "no embedding providers configured")
	}
	return nil, apperrors.Wrap(apperrors.CodeAllProvidersFailed, "all embedding providers failed", lastErr)
}

// EmbedBatch routes a batch of short texts through the chain's native
// GenerateBatch call, falling back to the next provider as a whole on
// failure. Texts that individually exceed the token budget are not
// chunked here — callers needing that should route them through Embed
// one at a time instead.
func (o *EmbeddingOrchestrator) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var lastErr error
	for _, e := range o.chain {
		if !e.breaker.Allow() {
			lastErr = breaker.ErrServiceUnavailable(e.provider.Name())
			continue
		}
		if !o.health.Healthy(ctx, e.provider) {
			continue
		}
		if !e.limiter.Allow() {
			lastErr = e.limiter.ErrRateLimit()
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		vecs, err := e.provider.GenerateBatch(callCtx, texts)
		cancel()

		if err != nil {
			e.breaker.RecordFailure()
			lastErr = err
			continue
		}
		e.breaker.RecordSuccess()
		return vecs, nil
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.CodeServiceUnavailable, "no embedding providers configured")
	}
	return nil, apperrors.Wrap(apperrors.CodeAllProvidersFailed, "all embedding providers failed", lastErr)
}

// embedChunked implements the chunk-averaging policy: split text via
// textproc.Chunk, embed every chunk (possibly through different
// providers, since embedOnce re-runs the full fallback chain per
// chunk), mean-pool, then re-normalize for cosine use.
func (o *EmbeddingOrchestrator) embedChunked(ctx context.Context, text string) ([]float64, error) {
	chunks, err := textproc.Chunk(text, textproc.DefaultChunkOptions())
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no content to embed")
	}

	var sum []float64
	for _, c := range chunks {
		vec, err := o.embedOnce(ctx, c)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		} else if len(vec) != len(sum) {
			return nil, apperrors.New(apperrors.CodeShapeError, "chunk embeddings have mismatched dimensions")
		}
		for i, x := range vec {
			sum[i] += x
		}
	}
	for i := range sum {
		sum[i] /= float64(len(chunks))
	}
	return similarity.Normalize(sum), nil
}

// Stats returns a breaker snapshot per configured provider, keyed by
// provider name, for health reporting.
func (o *EmbeddingOrchestrator) Stats() map[string]breaker.Stats {
	out := make(map[string]breaker.Stats, len(o.chain))
	for _, e := range o.chain {
		out[e.provider.Name()] = e.breaker.Stats()
	}
	return out
}

// PrimaryModel reports the configured primary provider's model name,
// for responses that echo back which model served a request. When the
// call actually fell back to a later provider the reported name is
// only approximate; exact per-call attribution isn't tracked past the
// vector itself.
func (o *EmbeddingOrchestrator) PrimaryModel() string {
	if len(o.chain) == 0 {
		return ""
	}
	return o.chain[0].provider.Model()
}

func estimateTokensApprox(text string) int {
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
