package roadmap

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"career-mentor/internal/fields"
	"career-mentor/internal/llm"
	"career-mentor/internal/prompt"
)

// Generator is the provider gateway as seen by the pipeline.
type Generator interface {
	GenerateResult(ctx context.Context, req llm.Request) llm.Result
}

// Outcome is a generated draft with its provenance.
type Outcome struct {
	Draft    Draft
	Fallback bool
	Reason   string
	Provider string
}

type Pipeline struct {
	gen     Generator
	prompts *prompt.Builder
	table   *fields.Table
}

func NewPipeline(gen Generator, prompts *prompt.Builder, table *fields.Table) *Pipeline {
	return &Pipeline{gen: gen, prompts: prompts, table: table}
}

// Generate always returns a usable draft.
func (p *Pipeline) Generate(ctx context.Context, field string, answers map[string]string) Draft {
	return p.Run(ctx, field, answers).Draft
}

func (p *Pipeline) Run(ctx context.Context, field string, answers map[string]string) Outcome {
	field = p.resolve(field)
	name := p.DisplayName(field)

	res := p.gen.GenerateResult(ctx, llm.Request{
		System:     prompt.GenerationSystem,
		Prompt:     p.prompts.Generation(field, answers),
		Structured: true,
	})
	if strings.TrimSpace(res.Text) == "" {
		return p.fallback(name, "empty reply")
	}

	d, err := Parse(res.Text)
	if err != nil {
		return p.fallback(name, err.Error())
	}

	d.Field = name
	if d.Title == "" {
		d.Title = "Career Path in " + name
	}
	if d.Description == "" {
		d.Description = "A personalized roadmap for your career in " + name
	}
	if d.ShortTitle == "" {
		d.ShortTitle = p.shortTitle(ctx, d.Title)
	}
	log.Info().Str("field", name).Str("provider", res.Provider).Int("milestones", len(d.Milestones)).Msg("roadmap generated")
	return Outcome{Draft: d, Provider: res.Provider}
}

// DisplayName is the field name written into drafts.
func (p *Pipeline) DisplayName(field string) string {
	if fields.Normalize(field) == "" {
		return DefaultField
	}
	return p.table.Lookup(p.resolve(field)).Name
}

// resolve maps a free-text answer to the configured field it names, if any.
func (p *Pipeline) resolve(field string) string {
	if p.table.Known(field) {
		return field
	}
	if key, ok := p.table.Match(field); ok {
		return key
	}
	return field
}

func (p *Pipeline) fallback(name, reason string) Outcome {
	log.Warn().Str("field", name).Str("reason", reason).Msg("using fallback roadmap")
	return Outcome{Draft: Fallback(name), Fallback: true, Reason: reason}
}

func (p *Pipeline) shortTitle(ctx context.Context, title string) string {
	sp := p.prompts.TitleSummary(title)
	res := p.gen.GenerateResult(ctx, llm.Request{System: sp.System, Prompt: sp.User})
	s := strings.Trim(strings.TrimSpace(res.Text), "\"'`*. ")
	if s == "" || len(strings.Fields(s)) > 4 {
		return TwoWords(title)
	}
	return s
}
