package embeddings

import (
	"context"

	"google.golang.org/genai"

	"contentproc/internal/apperrors"
)

const geminiTokenLimit = 2048 // conservative bound for gemini-embedding-001

// GeminiProvider is the hosted embedding backend using genai's
// EmbedContent with Matryoshka output-dimensionality truncation,
// grounded on internal/llm.Client.GenerateEmbedding.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int32
	normalize bool
}

func NewGeminiProvider(client *genai.Client, model string, dimension int32, normalize bool) *GeminiProvider {
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dimension <= 0 {
		dimension = 768
	}
	return &GeminiProvider{client: client, model: model, dimension: dimension, normalize: normalize}
}

func (p *GeminiProvider) Name() string   { return "gemini" }
func (p *GeminiProvider) Model() string  { return p.model }
func (p *GeminiProvider) Dimension() int { return int(p.dimension) }

func (p *GeminiProvider) EstimateCost(texts []string) float64 {
	return estimateCost(p.model, texts)
}

func (p *GeminiProvider) embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}, Role: "user"}}
	dims := p.dimension
	config := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "gemini embedding request failed", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, apperrors.New(apperrors.CodeNetwork, "gemini returned no embedding values")
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return normalizeIfRequested(out, p.normalize), nil
}

func (p *GeminiProvider) Generate(ctx context.Context, text string) ([]float64, error) {
	if tokens := estimateTokens(text); tokens > geminiTokenLimit {
		return nil, errInputTooLarge(tokens, geminiTokenLimit)
	}
	return p.embed(ctx, text)
}

func (p *GeminiProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var results [][]float64
	for _, batch := range batches(texts) {
		for _, t := range batch {
			v, err := p.Generate(ctx, t)
			if err != nil {
				return nil, err
			}
			results = append(results, v)
		}
	}
	return results, nil
}

func (p *GeminiProvider) Healthcheck(ctx context.Context) bool {
	_, err := p.Generate(ctx, "healthcheck")
	return err == nil
}
