package embeddings

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"contentproc/internal/apperrors"
)

const openAITokenLimit = 8191 // text-embedding-3-* context window

// OpenAIProvider is the hosted embedding backend. It pre-estimates
// token count (words * 1.3) before calling the API, per §4.3's
// InputTooLarge contract, and paginates batches to 100 inputs.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	dimension int
	normalize bool
}

func NewOpenAIProvider(apiKey, model string, dimension int, normalize bool) *OpenAIProvider {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimension <= 0 {
		dimension = 1536
	}
	return &OpenAIProvider{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: dimension,
		normalize: normalize,
	}
}

func (p *OpenAIProvider) Name() string   { return "openai" }
func (p *OpenAIProvider) Model() string  { return p.model }
func (p *OpenAIProvider) Dimension() int { return p.dimension }

func (p *OpenAIProvider) EstimateCost(texts []string) float64 {
	return estimateCost(p.model, texts)
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string) ([]float64, error) {
	if tokens := estimateTokens(text); tokens > openAITokenLimit {
		return nil, errInputTooLarge(tokens, openAITokenLimit)
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: p.model,
	}
	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "openai embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.New(apperrors.CodeNetwork, "openai returned no embedding data")
	}

	values := resp.Data[0].Embedding
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v
	}
	return normalizeIfRequested(out, p.normalize), nil
}

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var results [][]float64
	for _, batch := range batches(texts) {
		for _, t := range batch {
			if tokens := estimateTokens(t); tokens > openAITokenLimit {
				return nil, errInputTooLarge(tokens, openAITokenLimit)
			}
		}

		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
			Model: p.model,
		}
		resp, err := p.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeNetwork, "openai batch embedding request failed", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, apperrors.New(apperrors.CodeNetwork, "openai returned mismatched embedding count")
		}
		for _, d := range resp.Data {
			vec := make([]float64, len(d.Embedding))
			for j, v := range d.Embedding {
				vec[j] = v
			}
			results = append(results, normalizeIfRequested(vec, p.normalize))
		}
	}
	return results, nil
}

func (p *OpenAIProvider) Healthcheck(ctx context.Context) bool {
	_, err := p.Generate(ctx, "healthcheck")
	return err == nil
}
