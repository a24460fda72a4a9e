package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Result describes which provider produced a reply.
type Result struct {
	Text         string
	Provider     string
	Attempts     int
	PromptTokens int
}

// Gateway tries providers in order and returns the first non-empty reply.
// Failures never reach the caller; an empty string means every provider failed.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
}

func NewGateway(providers []Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{providers: providers, timeout: timeout}
}

func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for _, p := range g.providers {
		names = append(names, p.Name())
	}
	return names
}

func (g *Gateway) Generate(ctx context.Context, req Request) string {
	return g.GenerateResult(ctx, req).Text
}

func (g *Gateway) GenerateResult(ctx context.Context, req Request) Result {
	res := Result{PromptTokens: CountTokens(req.System) + CountTokens(req.Prompt)}
	for _, p := range g.providers {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("request cancelled before provider call")
			break
		}
		res.Attempts++
		text, err := g.call(ctx, p, req)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Int("attempt", res.Attempts).Msg("provider failed")
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Warn().Str("provider", p.Name()).Int("attempt", res.Attempts).Msg("provider returned empty reply")
			continue
		}
		res.Text = text
		res.Provider = p.Name()
		log.Debug().Str("provider", p.Name()).Int("prompt_tokens", res.PromptTokens).Msg("provider reply")
		return res
	}
	log.Error().Int("attempts", res.Attempts).Msg("all llm providers failed")
	return res
}

func (g *Gateway) call(ctx context.Context, p Provider, req Request) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := p.Generate(cctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
