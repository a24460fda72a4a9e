// Package conversation drives the career interview: it decides what to ask
// next, gates every call through the rate limiter and hands the collected
// answers to the roadmap pipeline once the interview is complete.
//
// The engine keeps no per-conversation state. Callers pass the full Session
// on every call and persist the returned reply themselves.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"career-mentor/internal/llm"
	"career-mentor/internal/prompt"
	"career-mentor/internal/ratelimit"
	"career-mentor/internal/roadmap"
)

const DefaultMinMessageLength = 10

var (
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInterviewIncomplete = errors.New("interview is not complete yet")
)

// RateLimitError carries the limiter state at the moment of denial.
type RateLimitError struct {
	Info ratelimit.Info
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s, resets at %s",
		e.Info.Limit, e.Info.Window, e.Info.ResetAt.Format("15:04 MST"))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

type Session struct {
	ID       string
	Identity string
	// Field overrides the preferred-field answer for generation when set.
	Field   string
	Turns   []Turn
	Roadmap *roadmap.Draft
}

type Reply struct {
	Accepted     bool
	Stage        Stage
	Text         string
	Roadmap      *roadmap.Draft
	RoadmapReady bool
	Provider     string
	RateLimit    ratelimit.Info
}

type Status struct {
	Stage        Stage
	MessageCount int
	UserTurns    int
	RoadmapReady bool
	Profile      Profile
}

// Gateway is the provider gateway as seen by the engine.
type Gateway interface {
	GenerateResult(ctx context.Context, req llm.Request) llm.Result
}

type Engine struct {
	limiter  ratelimit.Limiter
	gw       Gateway
	prompts  *prompt.Builder
	pipeline *roadmap.Pipeline
	minLen   int
	recent   int
	observer Observer
}

type Option func(*Engine)

func WithMinMessageLength(n int) Option { return func(e *Engine) { e.minLen = n } }

// WithRecentTurns sets how many past turns a mentoring prompt sees.
func WithRecentTurns(n int) Option { return func(e *Engine) { e.recent = n } }

func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

func NewEngine(limiter ratelimit.Limiter, gw Gateway, prompts *prompt.Builder, pipeline *roadmap.Pipeline, opts ...Option) *Engine {
	e := &Engine{
		limiter:  limiter,
		gw:       gw,
		prompts:  prompts,
		pipeline: pipeline,
		minLen:   DefaultMinMessageLength,
		recent:   prompt.DefaultRecentTurns,
		observer: func(Event) {},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start opens a conversation with a greeting that asks the first question.
func (e *Engine) Start(ctx context.Context, s Session) (Reply, error) {
	info, err := e.admit(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	p := e.prompts.Greeting()
	res := e.gw.GenerateResult(ctx, llm.Request{System: p.System, Prompt: p.User})
	text := cleanReply(res.Text)
	if text == "" {
		text = prompt.GreetingFallback()
	}
	e.observer(Event{Kind: EventReply, Session: s.ID, Identity: s.Identity, Stage: StageInterests, Reply: text, Provider: res.Provider})
	return Reply{Accepted: true, Stage: StageInterests, Text: text, Provider: res.Provider, RateLimit: info}, nil
}

// Advance processes one user message and returns the assistant reply.
func (e *Engine) Advance(ctx context.Context, s Session, message string) (Reply, error) {
	msg := strings.TrimSpace(message)
	current := Current(s.Turns)
	if utf8.RuneCountInString(msg) < e.minLen {
		e.observer(Event{Kind: EventRejected, Session: s.ID, Identity: s.Identity, Stage: current, Message: msg})
		return Reply{Accepted: false, Stage: current, Text: nudge(current)}, nil
	}

	info, err := e.admit(ctx, s)
	if err != nil {
		return Reply{}, err
	}

	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	turns = append(turns, Turn{Role: RoleUser, Text: msg, Seq: len(s.Turns)})
	stage := Current(turns)
	profile := ExtractProfile(turns)
	log.Debug().Str("session", s.ID).Str("stage", stage.String()).Msg("advancing conversation")

	var reply Reply
	switch stage {
	case StageRoadmapGeneration:
		reply = e.generate(ctx, s, profile)
	case StageMentoring:
		reply = e.mentor(ctx, s, msg)
	default:
		reply, err = e.ask(ctx, stage, profile)
		if err != nil {
			return Reply{}, err
		}
	}
	reply.RateLimit = info
	e.observer(Event{
		Kind: EventReply, Session: s.ID, Identity: s.Identity, Stage: reply.Stage,
		Message: msg, Reply: reply.Text, Provider: reply.Provider,
	})
	return reply, nil
}

// Regenerate runs the roadmap pipeline again over the same answers.
func (e *Engine) Regenerate(ctx context.Context, s Session) (roadmap.Draft, error) {
	if CountUserTurns(s.Turns) < prompt.QuestionStages {
		return roadmap.Draft{}, ErrInterviewIncomplete
	}
	if _, err := e.admit(ctx, s); err != nil {
		return roadmap.Draft{}, err
	}
	profile := ExtractProfile(s.Turns)
	out := e.pipeline.Run(ctx, e.fieldFor(s, profile), profile.Map())
	e.observeRoadmap(s, out)
	return out.Draft, nil
}

func (e *Engine) Status(s Session) Status {
	n := CountUserTurns(s.Turns)
	stage := StageFor(n)
	if n >= prompt.QuestionStages && s.Roadmap != nil {
		stage = StageMentoring
	}
	return Status{
		Stage:        stage,
		MessageCount: len(s.Turns),
		UserTurns:    n,
		RoadmapReady: s.Roadmap != nil,
		Profile:      ExtractProfile(s.Turns),
	}
}

func (e *Engine) admit(ctx context.Context, s Session) (ratelimit.Info, error) {
	ok, err := e.limiter.Record(ctx, s.Identity)
	if err != nil {
		return ratelimit.Info{}, errors.Wrap(err, "rate limit admission")
	}
	info, err := e.limiter.Check(ctx, s.Identity)
	if err != nil {
		return ratelimit.Info{}, errors.Wrap(err, "rate limit status")
	}
	if !ok {
		log.Info().Str("identity", s.Identity).Int("limit", info.Limit).Msg("rate limit exceeded")
		e.observer(Event{Kind: EventRateLimited, Session: s.ID, Identity: s.Identity, Stage: Current(s.Turns)})
		return info, &RateLimitError{Info: info}
	}
	return info, nil
}

func (e *Engine) ask(ctx context.Context, stage Stage, profile Profile) (Reply, error) {
	p, err := e.prompts.Stage(stage, profile)
	if err != nil {
		return Reply{}, err
	}
	res := e.gw.GenerateResult(ctx, llm.Request{System: p.System, Prompt: p.User})
	text := cleanReply(res.Text)
	if text == "" {
		text = prompt.Example(stage)
	}
	return Reply{Accepted: true, Stage: stage, Text: text, Provider: res.Provider}, nil
}

func (e *Engine) generate(ctx context.Context, s Session, profile Profile) Reply {
	out := e.pipeline.Run(ctx, e.fieldFor(s, profile), profile.Map())
	e.observeRoadmap(s, out)
	d := out.Draft
	return Reply{
		Accepted:     true,
		Stage:        StageMentoring,
		Text:         roadmapReady(d),
		Roadmap:      &d,
		RoadmapReady: true,
		Provider:     out.Provider,
	}
}

func (e *Engine) mentor(ctx context.Context, s Session, msg string) Reply {
	in := prompt.MentoringInput{Message: msg, Recent: recentLines(s.Turns, e.recent)}
	if s.Roadmap != nil {
		in.RoadmapTitle = s.Roadmap.Title
		in.Field = s.Roadmap.Field
	} else if s.Field != "" {
		in.Field = e.pipeline.DisplayName(s.Field)
	}
	p := e.prompts.Mentoring(in)
	res := e.gw.GenerateResult(ctx, llm.Request{System: p.System, Prompt: p.User})
	text := cleanReply(res.Text)
	if text == "" {
		text = prompt.MentoringFallback
	}
	return Reply{Accepted: true, Stage: StageMentoring, Text: text, Provider: res.Provider}
}

func (e *Engine) fieldFor(s Session, p Profile) string {
	if f := strings.TrimSpace(s.Field); f != "" {
		return f
	}
	return p.PreferredField
}

func (e *Engine) observeRoadmap(s Session, out roadmap.Outcome) {
	d := out.Draft
	e.observer(Event{
		Kind: EventRoadmap, Session: s.ID, Identity: s.Identity, Stage: StageRoadmapGeneration,
		Reply: out.Draft.Title, Provider: out.Provider, Fallback: out.Fallback, Milestones: len(d.Milestones), Roadmap: &d,
	})
}

func recentLines(turns []Turn, n int) []string {
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		who := "User"
		if t.Role == RoleAssistant {
			who = "AI"
		}
		out = append(out, who+": "+t.Text)
	}
	return out
}

// cleanReply trims whitespace and a pair of wrapping quotes.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "“"} {
		end := q
		if q == "“" {
			end = "”"
		}
		if len(s) >= len(q)+len(end) && strings.HasPrefix(s, q) && strings.HasSuffix(s, end) {
			return strings.TrimSpace(s[len(q) : len(s)-len(end)])
		}
	}
	return s
}

func nudge(stage Stage) string {
	const more = "Could you tell me a little more? A few words help me give you better guidance."
	if q := prompt.Example(stage); q != "" {
		return more + "\n\n" + q
	}
	return more
}

func roadmapReady(d roadmap.Draft) string {
	return fmt.Sprintf("Your roadmap \"%s\" is ready with %d milestones. "+
		"From here on I'm your mentor: ask me anything about the next steps.", d.Title, len(d.Milestones))
}
