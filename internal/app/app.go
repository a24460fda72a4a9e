// Package app assembles the interview engine and its collaborators from
// configuration. Both binaries go through it.
package app

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"career-mentor/internal/analytics"
	"career-mentor/internal/config"
	"career-mentor/internal/conversation"
	"career-mentor/internal/fields"
	"career-mentor/internal/history"
	"career-mentor/internal/llm"
	"career-mentor/internal/prompt"
	"career-mentor/internal/ratelimit"
	"career-mentor/internal/roadmap"
	"career-mentor/internal/storage"
)

// Deps are the pieces New builds from configuration. Tests pass them directly
// to Assemble.
type Deps struct {
	Providers []llm.Provider
	Limiter   ratelimit.Limiter
	Recorder  storage.Recorder
	Clock     func() time.Time
}

type App struct {
	cfg      *config.Config
	table    *fields.Table
	Gateway  *llm.Gateway
	Engine   *conversation.Engine
	History  *history.Manager
	pipeline *roadmap.Pipeline
	limiter  ratelimit.Limiter
	recorder storage.Recorder
	now      func() time.Time
	closers  []io.Closer
}

// New builds providers, the limiter and the event recorder from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	providers, err := llm.NewFactory(cfg).Build(ctx)
	if err != nil {
		return nil, err
	}

	deps := Deps{Providers: providers}
	var closers []io.Closer
	for _, p := range providers {
		if c, ok := p.(io.Closer); ok {
			closers = append(closers, c)
		}
	}

	local := ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
	deps.Limiter = local
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, client)
		shared := ratelimit.NewRedis(client, cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitKeyPrefix)
		if err := shared.Ping(ctx); err != nil {
			log.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate limits fall back to local counters")
		}
		deps.Limiter = ratelimit.NewDegrading(shared, local)
	}

	if cfg.LogFilePath != "" {
		rec, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Error().Err(err).Msg("failed to init event log, continuing without it")
		} else {
			deps.Recorder = rec
		}
	}

	a, err := Assemble(cfg, deps)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	a.closers = closers
	return a, nil
}

// Assemble wires the engine around the given dependencies.
func Assemble(cfg *config.Config, deps Deps) (*App, error) {
	table, err := fields.Load(cfg.FieldsFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "load field table")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow, ratelimit.WithClock(now))
	}

	a := &App{
		cfg:      cfg,
		table:    table,
		Gateway:  llm.NewGateway(deps.Providers, cfg.ProviderTimeout),
		History:  history.NewManager(),
		limiter:  limiter,
		recorder: deps.Recorder,
		now:      now,
	}
	builder := prompt.NewBuilder(table, cfg.MentoringContextTurns)
	a.pipeline = roadmap.NewPipeline(a.Gateway, builder, table)
	a.Engine = conversation.NewEngine(limiter, a.Gateway, builder, a.pipeline,
		conversation.WithMinMessageLength(cfg.MinMessageLength),
		conversation.WithRecentTurns(cfg.MentoringContextTurns),
		conversation.WithObserver(a.record),
	)

	if a.recorder != nil {
		events, err := a.recorder.LoadEvents()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load event log")
		} else if n := a.History.Restore(events); n > 0 {
			log.Info().Int("sessions", n).Msg("conversations restored")
		}
	}

	log.Info().Strs("providers", a.Gateway.Providers()).Int("rate_limit", cfg.RateLimitRequests).
		Dur("rate_window", cfg.RateLimitWindow).Msg("engine ready")
	return a, nil
}

// Fields returns the field table the prompts are built from.
func (a *App) Fields() *fields.Table { return a.table }

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string { return uuid.NewString() }

// Start greets the user and stores the greeting as the first assistant turn.
func (a *App) Start(ctx context.Context, sessionID, identity string) (conversation.Reply, error) {
	r, err := a.Engine.Start(ctx, a.History.Session(sessionID, identity))
	if err != nil {
		return r, err
	}
	a.History.AppendAssistant(sessionID, identity, r.Text)
	return r, nil
}

// Send runs one user message through the engine and persists the exchange.
func (a *App) Send(ctx context.Context, sessionID, identity, text string) (conversation.Reply, error) {
	r, err := a.Engine.Advance(ctx, a.History.Session(sessionID, identity), text)
	if err != nil || !r.Accepted {
		return r, err
	}
	a.History.AppendUser(sessionID, identity, strings.TrimSpace(text))
	a.History.AppendAssistant(sessionID, identity, r.Text)
	if r.Roadmap != nil {
		a.History.SetRoadmap(sessionID, identity, *r.Roadmap)
	}
	return r, nil
}

func (a *App) Regenerate(ctx context.Context, sessionID, identity string) (roadmap.Draft, error) {
	d, err := a.Engine.Regenerate(ctx, a.History.Session(sessionID, identity))
	if err != nil {
		return d, err
	}
	a.History.SetRoadmap(sessionID, identity, d)
	return d, nil
}

// Roadmap drafts a roadmap straight from answers keyed like the profile,
// without an interview or admission.
func (a *App) Roadmap(ctx context.Context, field string, answers map[string]string) roadmap.Outcome {
	return a.pipeline.Run(ctx, field, answers)
}

func (a *App) Status(sessionID, identity string) conversation.Status {
	return a.Engine.Status(a.History.Session(sessionID, identity))
}

// Session returns the stored session.
func (a *App) Session(sessionID, identity string) conversation.Session {
	return a.History.Session(sessionID, identity)
}

func (a *App) SetField(sessionID, identity, field string) {
	a.History.SetField(sessionID, identity, field)
}

// Reset forgets a conversation, including its recorded events.
func (a *App) Reset(sessionID string) {
	a.History.Reset(sessionID)
	if d, ok := a.recorder.(interface{ DropSession(string) error }); ok {
		if err := d.DropSession(sessionID); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("failed to drop session events")
		}
	}
}

func (a *App) Limit(ctx context.Context, identity string) (ratelimit.Info, error) {
	return a.limiter.Check(ctx, identity)
}

func (a *App) ResetLimit(ctx context.Context, identity string) error {
	return a.limiter.Reset(ctx, identity)
}

func (a *App) LimitStats(ctx context.Context) (ratelimit.Stats, error) {
	return a.limiter.Stats(ctx)
}

// Sweep drops idle rate-limit windows from the local limiter.
func (a *App) Sweep() int {
	if s, ok := a.limiter.(interface{ Sweep() int }); ok {
		return s.Sweep()
	}
	return 0
}

// DailyReport summarises the recorded events of the given day.
func (a *App) DailyReport(day time.Time) (*analytics.DailyStats, error) {
	if a.recorder == nil {
		return nil, errors.New("event log is disabled")
	}
	events, err := a.recorder.LoadEvents()
	if err != nil {
		return nil, errors.Wrap(err, "load events")
	}
	return analytics.AnalyzeDailyLogs(events, day), nil
}

func (a *App) record(ev conversation.Event) {
	if a.recorder == nil {
		return
	}
	out := storage.Event{
		Timestamp:         a.now().UTC(),
		Kind:              string(ev.Kind),
		SessionID:         ev.Session,
		Identity:          ev.Identity,
		Stage:             ev.Stage.String(),
		UserMessage:       ev.Message,
		AssistantResponse: ev.Reply,
		Provider:          ev.Provider,
		Fallback:          ev.Fallback,
		Milestones:        ev.Milestones,
	}
	if ev.Roadmap != nil {
		raw, err := json.Marshal(ev.Roadmap)
		if err != nil {
			log.Warn().Err(err).Msg("failed to encode roadmap")
		} else {
			out.Roadmap = raw
		}
	}
	if err := a.recorder.AppendEvent(out); err != nil {
		log.Warn().Err(err).Str("kind", out.Kind).Msg("failed to record event")
	}
}
