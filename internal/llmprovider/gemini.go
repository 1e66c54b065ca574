package llmprovider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-flash-lite-latest"

// GeminiProvider wraps google.golang.org/genai, the SDK the teacher
// already used directly (its go.mod lagged the actual import). The
// call shape (build []*genai.Content, call Models.GenerateContent,
// read resp.Text()) is carried over from internal/llm.Client.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, unknownKindError(KindGemini)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, classifyProviderError("gemini", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string         { return string(KindGemini) }
func (p *GeminiProvider) DefaultModel() string { return defaultGeminiModel }

func (p *GeminiProvider) AvailableModels(ctx context.Context) ([]string, error) {
	return []string{"gemini-flash-lite-latest", "gemini-1.5-pro", "gemini-1.5-flash"}, nil
}

func toGeminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: "System instruction: " + req.SystemPrompt}},
		})
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return contents
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, toGeminiContents(req), nil)
	if err != nil {
		return nil, classifyProviderError("gemini", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, classifyProviderError("gemini", fmt.Errorf("empty response from model"))
	}

	return &Response{
		Content:  text,
		Provider: p.Name(),
		Model:    model,
	}, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk, 1)
	go func() {
		defer close(out)
		resp, err := p.Generate(ctx, req)
		if err != nil {
			out <- StreamChunk{Err: err, Done: true}
			return
		}
		out <- StreamChunk{Delta: resp.Content}
		out <- StreamChunk{Done: true}
	}()
	return out, nil
}

func (p *GeminiProvider) ValidateConnection(ctx context.Context) error {
	_, err := p.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "ping"}}, MaxTokens: 8})
	return err
}

// GenerateEmbedding mirrors internal/llm.Client.GenerateEmbedding:
// Matryoshka-truncated to a fixed dimension for index compatibility.
func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, model string, text string, dimension int32) ([]float64, error) {
	if model == "" {
		model = "gemini-embedding-001"
	}
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}, Role: "user"}}
	config := &genai.EmbedContentConfig{OutputDimensionality: &dimension}

	resp, err := p.client.Models.EmbedContent(ctx, model, contents, config)
	if err != nil {
		return nil, classifyProviderError("gemini", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, classifyProviderError("gemini", fmt.Errorf("no embedding values returned"))
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}
