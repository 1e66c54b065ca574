package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentproc/internal/llmprovider"
)

type fakeLLM struct {
	name      string
	failUntil int
	calls     int
	models    []string
}

func (f *fakeLLM) Name() string         { return f.name }
func (f *fakeLLM) DefaultModel() string { return "default" }
func (f *fakeLLM) AvailableModels(ctx context.Context) ([]string, error) {
	return f.models, nil
}
func (f *fakeLLM) Generate(ctx context.Context, req llmprovider.Request) (*llmprovider.Response, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, errors.New("boom")
	}
	return &llmprovider.Response{Content: "ok", Provider: f.name}, nil
}
func (f *fakeLLM) Stream(ctx context.Context, req llmprovider.Request) (<-chan llmprovider.StreamChunk, error) {
	return nil, nil
}
func (f *fakeLLM) ValidateConnection(ctx context.Context) error { return nil }

func TestLLMOrchestratorUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &fakeLLM{name: "primary"}
	fallback := &fakeLLM{name: "fallback"}
	o := NewLLMOrchestrator([]llmprovider.Provider{primary, fallback}, 60)

	resp, err := o.Generate(context.Background(), llmprovider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Provider)
}

func TestLLMOrchestratorFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeLLM{name: "primary", failUntil: 10}
	fallback := &fakeLLM{name: "fallback"}
	o := NewLLMOrchestrator([]llmprovider.Provider{primary, fallback}, 60)

	resp, err := o.Generate(context.Background(), llmprovider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Provider)
}

func TestLLMOrchestratorAllProvidersFailedWhenChainExhausted(t *testing.T) {
	primary := &fakeLLM{name: "primary", failUntil: 10}
	o := NewLLMOrchestrator([]llmprovider.Provider{primary}, 60)

	_, err := o.Generate(context.Background(), llmprovider.Request{})
	assert.Error(t, err)
}

func TestLLMOrchestratorPinnedModelTriedFirst(t *testing.T) {
	primary := &fakeLLM{name: "primary", models: []string{"gpt-a"}}
	pinned := &fakeLLM{name: "pinned-capable", models: []string{"gpt-b"}}
	o := NewLLMOrchestrator([]llmprovider.Provider{primary, pinned}, 60)

	resp, err := o.Generate(context.Background(), llmprovider.Request{Model: "gpt-b"})
	require.NoError(t, err)
	assert.Equal(t, "pinned-capable", resp.Provider)
}
