package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/courtside/internal/clock"
)

const keyPrefix = "ratelimit:"

// The expiry is set only by the increment that creates the key, so the window
// is fixed from the first hit. A key that lost its TTL is given a fresh one.
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// RedisStore shares counters across replicas.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
	clock  clock.Clock
}

func NewRedisStore(client *redis.Client, clk clock.Clock) *RedisStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &RedisStore{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		clock:  clk,
	}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	if err := validate(key, window); err != nil {
		return Window{}, err
	}
	if s == nil || s.client == nil {
		return Window{}, errors.New("rate limiter redis client not configured")
	}

	res, err := s.script.Run(ctx, s.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return Window{}, ErrStoreClosed
		}
		return Window{}, fmt.Errorf("rate limit increment: %w", err)
	}
	if len(res) != 2 {
		return Window{}, errors.New("invalid rate limit script response")
	}

	ttl := res[1]
	if ttl < 0 {
		ttl = 0
	}
	return Window{
		Count:   res[0],
		ResetAt: s.clock.Now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
