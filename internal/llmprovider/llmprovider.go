// Package llmprovider implements the uniform LLM capability set (C4)
// over OpenAI, Anthropic, and Gemini: chat-complete, streaming,
// connection validation, and model enumeration. Grounded on the
// provider-factory shape in cagent's pkg/model/provider and the
// Sprintf-prompt / genai.Client call style of the teacher's
// internal/llm package, generalized from a single hard-coded Gemini
// client into a closed-enum-keyed set of capability implementations.
package llmprovider

import (
	"context"
)

// Kind is the closed enum of supported provider kinds.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
)

// Role is the message role in a chat request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat request.
type Message struct {
	Role    Role
	Content string
}

// Request carries every field a provider implementation may need.
type Request struct {
	Messages         []Message
	Model            string
	Temperature      float32 // in [0, 2]
	MaxTokens        int32
	SystemPrompt     string            // promoted to a system message, or the provider's dedicated field
	AdditionalParams map[string]any    // provider-specific pass-through
}

// Usage reports token accounting for a single call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Response is the uniform result of a chat-completion call.
type Response struct {
	Content      string
	Provider     string
	Model        string
	Usage        Usage
	FinishReason string
	Metadata     map[string]any
}

// StreamChunk is one piece of a streaming response.
type StreamChunk struct {
	Delta string
	Done  bool
	Err   error
}

// Provider is the capability set every LLM backend implements.
type Provider interface {
	Name() string
	DefaultModel() string
	AvailableModels(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request) (<-chan StreamChunk, error)
	ValidateConnection(ctx context.Context) error
}

// New builds a Provider for the given kind and API key. model may be
// empty to use the provider's default.
func New(kind Kind, apiKey string, model string) (Provider, error) {
	switch kind {
	case KindOpenAI:
		return NewOpenAIProvider(apiKey, model)
	case KindAnthropic:
		return NewAnthropicProvider(apiKey, model)
	case KindGemini:
		return NewGeminiProvider(apiKey, model)
	default:
		return nil, unknownKindError(kind)
	}
}
