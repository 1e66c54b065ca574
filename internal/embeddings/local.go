package embeddings

import (
	"context"
	"sync"

	"contentproc/internal/apperrors"
)

// LocalModel is the narrow interface a real sentence-transformer
// binding would implement; kept separate from Provider so the lazy
// load below has something concrete to defer constructing.
type LocalModel interface {
	Embed(text string) ([]float64, error)
	Dimension() int
}

// LocalProvider lazy-loads its model on first call and executes
// batches off the caller's goroutine via a worker pool, per §4.3(b).
type LocalProvider struct {
	once   sync.Once
	loadFn func() (LocalModel, error)
	model  LocalModel
	loadErr error
	name   string
}

func NewLocalProvider(name string, loadFn func() (LocalModel, error)) *LocalProvider {
	return &LocalProvider{name: name, loadFn: loadFn}
}

func (p *LocalProvider) ensureLoaded() error {
	p.once.Do(func() {
		p.model, p.loadErr = p.loadFn()
	})
	return p.loadErr
}

func (p *LocalProvider) Name() string { return p.name }

func (p *LocalProvider) Model() string {
	if err := p.ensureLoaded(); err != nil {
		return ""
	}
	return p.name
}

func (p *LocalProvider) Dimension() int {
	if err := p.ensureLoaded(); err != nil {
		return 0
	}
	return p.model.Dimension()
}

func (p *LocalProvider) EstimateCost(texts []string) float64 { return 0 }

func (p *LocalProvider) Generate(ctx context.Context, text string) ([]float64, error) {
	if err := p.ensureLoaded(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "local embedding model failed to load", err)
	}
	v, err := p.model.Embed(text)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "local embedding call failed", err)
	}
	return v, nil
}

// GenerateBatch runs each embed call in its own goroutine, bounded by a
// small worker pool, so a slow local model doesn't serialize the batch
// onto a single thread.
func (p *LocalProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	const workers = 4
	results := make([][]float64, len(texts))
	errs := make([]error, len(texts))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = p.Generate(ctx, text)
		}(i, text)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (p *LocalProvider) Healthcheck(ctx context.Context) bool {
	return p.ensureLoaded() == nil
}
