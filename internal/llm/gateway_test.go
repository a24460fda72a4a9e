package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-mentor/internal/config"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	delay time.Duration
	calls int32
	last  Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req Request) (Response, error) {
	atomic.AddInt32(&f.calls, 1)
	f.last = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Content: f.reply}, nil
}

func TestGateway_FallsBackToNextProvider(t *testing.T) {
	p1 := &fakeProvider{name: "gemini", err: errors.New("quota exceeded")}
	p2 := &fakeProvider{name: "openai", reply: "hello"}
	g := NewGateway([]Provider{p1, p2}, time.Second)

	res := g.GenerateResult(context.Background(), Request{Prompt: "hi", Structured: true})
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, 2, res.Attempts)
	assert.Greater(t, res.PromptTokens, 0)
	assert.True(t, p2.last.Structured)
}

func TestGateway_EmptyReplyCountsAsFailure(t *testing.T) {
	p1 := &fakeProvider{name: "a", reply: "   "}
	p2 := &fakeProvider{name: "b", reply: "second"}
	g := NewGateway([]Provider{p1, p2}, time.Second)
	assert.Equal(t, "second", g.Generate(context.Background(), Request{Prompt: "x"}))
}

func TestGateway_FirstSuccessStopsIteration(t *testing.T) {
	p1 := &fakeProvider{name: "a", reply: "first"}
	p2 := &fakeProvider{name: "b", reply: "second"}
	g := NewGateway([]Provider{p1, p2}, time.Second)

	assert.Equal(t, "first", g.Generate(context.Background(), Request{Prompt: "x"}))
	assert.EqualValues(t, 0, p2.calls)
}

func TestGateway_TimeoutMovesOn(t *testing.T) {
	slow := &fakeProvider{name: "slow", reply: "late", delay: time.Second}
	fast := &fakeProvider{name: "fast", reply: "on time"}
	g := NewGateway([]Provider{slow, fast}, 20*time.Millisecond)

	assert.Equal(t, "on time", g.Generate(context.Background(), Request{Prompt: "x"}))
}

func TestGateway_AllFailReturnsEmpty(t *testing.T) {
	g := NewGateway([]Provider{
		&fakeProvider{name: "a", err: errors.New("down")},
		&fakeProvider{name: "b", err: errors.New("down")},
	}, time.Second)
	res := g.GenerateResult(context.Background(), Request{Prompt: "x"})
	assert.Empty(t, res.Text)
	assert.Equal(t, 2, res.Attempts)

	assert.Empty(t, NewGateway(nil, 0).Generate(context.Background(), Request{Prompt: "x"}))
}

func TestGateway_NoRetryWithinRequest(t *testing.T) {
	p := &fakeProvider{name: "a", err: errors.New("down")}
	g := NewGateway([]Provider{p}, time.Second)
	g.Generate(context.Background(), Request{Prompt: "x"})
	assert.EqualValues(t, 1, p.calls)
}

func TestFactory_SkipsUnconfiguredProviders(t *testing.T) {
	cfg := &config.Config{
		ProviderPriority: []string{"gemini", "openai", "anthropic", "yandex"},
		OpenAIAPIKey:     "sk-test",
		OpenAIModel:      "gpt-4o-mini",
		AnthropicAPIKey:  "ak-test",
		AnthropicBaseURL: "https://api.anthropic.com/v1/",
		AnthropicModel:   "claude-3-5-haiku-latest",
	}
	ps, err := NewFactory(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, ProviderOpenAI, ps[0].Name())
	assert.Equal(t, ProviderAnthropic, ps[1].Name())
}

func TestFactory_AnthropicUsesOwnSettings(t *testing.T) {
	cfg := &config.Config{
		ProviderPriority:     []string{"anthropic"},
		OpenAITemperature:    0.2,
		OpenAIMaxTokens:      500,
		AnthropicAPIKey:      "ak-test",
		AnthropicBaseURL:     "https://api.anthropic.com/v1/",
		AnthropicModel:       "claude-3-5-haiku-latest",
		AnthropicTemperature: 0.9,
		AnthropicMaxTokens:   3000,
	}
	p, err := NewFactory(cfg).CreateProvider(context.Background(), ProviderAnthropic)
	require.NoError(t, err)
	c, ok := p.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, Settings{Model: "claude-3-5-haiku-latest", Temperature: 0.9, MaxTokens: 3000}, c.settings)
}

func TestFactory_UnknownProviderIsError(t *testing.T) {
	cfg := &config.Config{ProviderPriority: []string{"openai", "cohere"}, OpenAIAPIKey: "sk"}
	_, err := NewFactory(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cohere")
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Greater(t, CountTokens("Describe a career path in data science."), 0)
}
