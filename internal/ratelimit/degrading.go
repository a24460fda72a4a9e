package ratelimit

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Degrading answers from the shared limiter and falls back to the local one
// whenever the shared backend fails. Backend errors are logged, never returned.
type Degrading struct {
	shared Limiter
	local  Limiter
}

func NewDegrading(shared, local Limiter) *Degrading {
	return &Degrading{shared: shared, local: local}
}

func (d *Degrading) Check(ctx context.Context, identity string) (Info, error) {
	info, err := d.shared.Check(ctx, identity)
	if err == nil {
		return info, nil
	}
	log.Error().Err(err).Str("identity", identity).Msg("shared rate limiter check failed, using local counter")
	return d.local.Check(ctx, identity)
}

func (d *Degrading) Record(ctx context.Context, identity string) (bool, error) {
	ok, err := d.shared.Record(ctx, identity)
	if err == nil {
		return ok, nil
	}
	log.Error().Err(err).Str("identity", identity).Msg("shared rate limiter record failed, using local counter")
	return d.local.Record(ctx, identity)
}

func (d *Degrading) Reset(ctx context.Context, identity string) error {
	if err := d.shared.Reset(ctx, identity); err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("shared rate limiter reset failed")
	}
	return d.local.Reset(ctx, identity)
}

func (d *Degrading) Stats(ctx context.Context) (Stats, error) {
	st, err := d.shared.Stats(ctx)
	if err == nil {
		return st, nil
	}
	log.Error().Err(err).Msg("shared rate limiter stats failed, using local counter")
	return d.local.Stats(ctx)
}

// Sweep forwards to the local limiter when it supports sweeping.
func (d *Degrading) Sweep() int {
	if s, ok := d.local.(interface{ Sweep() int }); ok {
		return s.Sweep()
	}
	return 0
}
