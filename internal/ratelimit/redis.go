package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted set per identity scored by request time in
// milliseconds. Purge, count and the conditional insert run as one script so
// concurrent requests for the same identity cannot overshoot the limit.
//
// KEYS[1] identity key
// ARGV: cutoff, now, limit, member, record flag, window in ms
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if ARGV[5] == '1' and count < tonumber(ARGV[3]) then
  redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
  redis.call('PEXPIRE', KEYS[1], ARGV[6])
  return {1, count + 1}
end
return {0, count}
`)

// Redis is the shared limiter for multi-process deployments.
type Redis struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, limit int, window time.Duration, prefix string, opts ...Option) *Redis {
	o := buildOptions(opts)
	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    o.now,
	}
}

func (r *Redis) key(identity string) string { return r.prefix + identity }

func (r *Redis) run(ctx context.Context, identity string, record bool) (bool, int, time.Time, error) {
	now := r.now()
	nowMs := now.UnixMilli()
	flag := "0"
	if record {
		flag = "1"
	}
	res, err := slidingWindow.Run(ctx, r.client, []string{r.key(identity)},
		strconv.FormatInt(nowMs-r.window.Milliseconds(), 10),
		strconv.FormatInt(nowMs, 10),
		strconv.Itoa(r.limit),
		fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
		flag,
		strconv.FormatInt(r.window.Milliseconds(), 10),
	).Int64Slice()
	if err != nil {
		return false, 0, now, errors.Wrapf(err, "rate limit script for %s", identity)
	}
	if len(res) != 2 {
		return false, 0, now, errors.Errorf("rate limit script returned %d values", len(res))
	}
	return res[0] == 1, int(res[1]), now, nil
}

func (r *Redis) Check(ctx context.Context, identity string) (Info, error) {
	_, used, now, err := r.run(ctx, identity, false)
	if err != nil {
		return Info{}, err
	}
	return newInfo(used, r.limit, now, r.window), nil
}

func (r *Redis) Record(ctx context.Context, identity string) (bool, error) {
	ok, _, _, err := r.run(ctx, identity, true)
	return ok, err
}

func (r *Redis) Reset(ctx context.Context, identity string) error {
	return errors.Wrap(r.client.Del(ctx, r.key(identity)).Err(), "reset rate limit")
}

func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Limit: r.limit}
	lower := "(" + strconv.FormatInt(r.now().Add(-r.window).UnixMilli(), 10)
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.client.ZCount(ctx, iter.Val(), lower, "+inf").Result()
		if err != nil {
			return Stats{}, errors.Wrap(err, "count rate window")
		}
		st.TotalIdentities++
		st.TotalRequests += int(n)
		if n > 0 {
			st.ActiveIdentities++
		}
	}
	if err := iter.Err(); err != nil {
		return Stats{}, errors.Wrap(err, "scan rate limit keys")
	}
	return st, nil
}

// Ping reports whether the backend is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
