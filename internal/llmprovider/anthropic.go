package llmprovider

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-sonnet-latest"

// AnthropicProvider wraps anthropic-sdk-go. Call shape grounded on
// cagent's pkg/model/provider/anthropic/client.go, stripped of its
// tool-use/beta-streaming/thinking-budget machinery — this spec's
// capability set has no tool calling.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, unknownKindError(KindAnthropic)
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: client, model: model}, nil
}

func (p *AnthropicProvider) Name() string         { return string(KindAnthropic) }
func (p *AnthropicProvider) DefaultModel() string { return defaultAnthropicModel }

func (p *AnthropicProvider) AvailableModels(ctx context.Context) ([]string, error) {
	return []string{"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest", "claude-3-opus-latest"}, nil
}

func toAnthropicParams(model string, req Request) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	return params
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	params := toAnthropicParams(model, req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyProviderError("anthropic", err)
	}
	if len(msg.Content) == 0 {
		return nil, classifyProviderError("anthropic", errors.New("empty response from model"))
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Content:      text,
		Provider:     p.Name(),
		Model:        model,
		FinishReason: string(msg.StopReason),
		Usage: Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
			TotalTokens:      msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}, nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	params := toAnthropicParams(model, req)

	out := make(chan StreamChunk, 8)
	go func() {
		defer close(out)
		stream := p.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta.Delta.Text != "" {
					out <- StreamChunk{Delta: delta.Delta.Text}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- StreamChunk{Err: classifyProviderError("anthropic", err), Done: true}
			return
		}
		out <- StreamChunk{Done: true}
	}()
	return out, nil
}

func (p *AnthropicProvider) ValidateConnection(ctx context.Context) error {
	_, err := p.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "ping"}}, MaxTokens: 8})
	return err
}
