package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client   *genai.Client
	settings Settings
}

func NewGemini(ctx context.Context, apiKey string, s Settings) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}
	return &GeminiClient{client: client, settings: s}, nil
}

func (c *GeminiClient) Name() string { return ProviderGemini }

func (c *GeminiClient) Generate(ctx context.Context, r Request) (Response, error) {
	model := c.client.GenerativeModel(c.settings.Model)
	model.SetTemperature(c.settings.Temperature)
	if c.settings.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.settings.MaxTokens))
	}
	if r.Structured {
		model.ResponseMIMEType = "application/json"
	}
	if r.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(r.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(r.Prompt))
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	out := Response{Content: sb.String(), Model: c.settings.Model}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

func (c *GeminiClient) Close() error { return c.client.Close() }
