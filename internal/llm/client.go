package llm

import "context"

// Request is one provider-neutral generation call.
type Request struct {
	System string
	Prompt string
	// Structured asks the backend for a JSON object when it supports that.
	Structured bool
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is implemented by every backend adapter.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Settings are the per-provider sampling knobs.
type Settings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}
