package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ac:rl:"

// The whole consume runs as one script so increment-then-check is atomic
// per key even across processes. Returns {allowed, remaining, ttl_ms}.
const consumeScript = `
local counter = KEYS[1]
local block = KEYS[2]
local points = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local block_ms = tonumber(ARGV[3])

local bttl = redis.call("PTTL", block)
if bttl > 0 then
  return {0, 0, bttl}
end

local count = redis.call("INCR", counter)
if count == 1 then
  redis.call("PEXPIRE", counter, window_ms)
end
local ttl = redis.call("PTTL", counter)
if ttl < 0 then
  redis.call("PEXPIRE", counter, window_ms)
  ttl = window_ms
end

if count > points then
  redis.call("SET", block, "1", "PX", block_ms)
  redis.call("DEL", counter)
  return {0, 0, block_ms}
end

return {1, points - count, ttl}
`

var consumeLua = redis.NewScript(consumeScript)

// Redis is a [Limiter] backed by a shared Redis instance so the budget
// holds globally across processes. Window and block expiry map onto key
// TTLs.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis-backed limiter. An empty prefix selects the
// default "ac:rl:" key namespace.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Consume spends one point from the (tier, key) budget.
func (r *Redis) Consume(ctx context.Context, tier Tier, key string) (Result, error) {
	keys := []string{
		r.prefix + tier.Name + ":" + key,
		r.prefix + tier.Name + ":blk:" + key,
	}
	args := []interface{}{tier.Points, tier.Window.Milliseconds(), tier.Block.Milliseconds()}

	raw, err := consumeLua.Run(ctx, r.client, keys, args...).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 3 {
		return Result{}, fmt.Errorf("%w: unexpected script reply %v", ErrUnavailable, raw)
	}
	allowed, _ := reply[0].(int64)
	remaining, _ := reply[1].(int64)
	ttlMs, _ := reply[2].(int64)

	now := time.Now()
	ttl := time.Duration(ttlMs) * time.Millisecond
	res := Result{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetAt:   now.Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}
