// Package orchestrator implements the provider orchestrator (C6): an
// ordered primary+fallback chain over LLM or embedding providers, each
// gated by its own circuit breaker, health cache, and RPM window.
// Grounded on the teacher's provider-selection logic in
// internal/llm/llm.go (which already picks among configured models)
// generalized into an explicit ordered-chain abstraction, and on
// original_source's resilience.py for the skip-if-open/record-result
// sequencing.
package orchestrator

import (
	"context"
	"time"

	"contentproc/internal/apperrors"
	"contentproc/internal/breaker"
	"contentproc/internal/llmprovider"
	"contentproc/internal/ratelimit"
)

const defaultCallTimeout = 30 * time.Second

// entry bundles one provider with the resilience primitives gating it.
type entry struct {
	provider llmprovider.Provider
	breaker  *breaker.Breaker
	limiter  *ratelimit.Window
}

// LLMOrchestrator holds the ordered provider chain for chat generation.
type LLMOrchestrator struct {
	chain       []entry
	health      *llmprovider.HealthCache
	callTimeout time.Duration
}

type LLMOrchestratorOption func(*LLMOrchestrator)

func WithCallTimeout(d time.Duration) LLMOrchestratorOption {
	return func(o *LLMOrchestrator) { o.callTimeout = d }
}

// NewLLMOrchestrator builds the chain in the given priority order: the
// first provider is primary, the rest are fallbacks in order.
func NewLLMOrchestrator(providers []llmprovider.Provider, rpm int, opts ...LLMOrchestratorOption) *LLMOrchestrator {
	o := &LLMOrchestrator{health: llmprovider.NewHealthCache(), callTimeout: defaultCallTimeout}
	for _, p := range providers {
		o.chain = append(o.chain, entry{
			provider: p,
			breaker:  breaker.New(p.Name(), 5, 60*time.Second),
			limiter:  ratelimit.NewWindow(p.Name(), rpm),
		})
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate routes req through the chain per §4.6 steps 1-7. If
// req.Model is set, the provider whose AvailableModels advertises it is
// tried first; the rest of the chain still acts as fallback.
func (o *LLMOrchestrator) Generate(ctx context.Context, req llmprovider.Request) (*llmprovider.Response, error) {
	order := o.order(ctx, req.Model)

	var lastErr error
	for _, e := range order {
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
		resp, err := e.provider.Generate(callCtx, req)
		cancel()

		if err != nil {
			e.breaker.RecordFailure()
			lastErr = err
			continue
		}
		e.breaker.RecordSuccess()
		return resp, nil
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.CodeServiceUnavailable, "no providers configured")
	}
	return nil, apperrors.Wrap(apperrors.CodeAllProvidersFailed, "all providers failed", lastErr)
}

// order returns the chain reordered so a provider advertising the
// pinned model (if any) is tried first, preserving relative order
// otherwise.
func (o *LLMOrchestrator) order(ctx context.Context, pinnedModel string) []entry {
	if pinnedModel == "" {
		return o.chain
	}
	var pinned, rest []entry
	for _, e := range o.chain {
		if advertisesModel(ctx, e.provider, pinnedModel) {
			pinned = append(pinned, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(pinned, rest...)
}

// Stats returns a breaker snapshot per configured provider, keyed by
// provider name, for health reporting.
func (o *LLMOrchestrator) Stats() map[string]breaker.Stats {
	out := make(map[string]breaker.Stats, len(o.chain))
	for _, e := range o.chain {
		out[e.provider.Name()] = e.breaker.Stats()
	}
	return out
}

func advertisesModel(ctx context.Context, p llmprovider.Provider, model string) bool {
	models, err := p.AvailableModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}
