package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrRedisClientRequired is returned by NewRedis without a client.
var ErrRedisClientRequired = errors.New("lock: redis client is required")

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Client redis.UniversalClient
	// Prefix is prepended to every key. Empty means "lock:".
	Prefix string
}

// Redis implements Locker with SET NX PX and a token checked release.
type Redis struct {
	client redis.UniversalClient
	prefix string
	opts   Options
}

func NewRedis(cfg RedisOptions, opts Options) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrRedisClientRequired
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "lock:"
	}
	return &Redis{client: cfg.Client, prefix: prefix, opts: opts.withDefaults()}, nil
}

func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	fk := r.prefix + key
	token := uuid.NewString()
	deadline := time.After(r.opts.Wait)

	for {
		acquired, err := r.client.SetNX(ctx, fk, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if acquired {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, r.client, []string{fk}, token).Err()
			}, nil
		}

		if err := waitFor(ctx, deadline, r.opts.Poll); err != nil {
			return nil, err
		}
	}
}
