package redis

import (
	"context"
	"strings"
	"time"

	"telegram-channel-bot/internal/config"

	"github.com/go-redis/redis/v8"
)

type RedisClient interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	// IncrExpire increments key and refreshes its expiry in one round trip.
	IncrExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
	// SlideWindow adds member at score, trims members scored below minScore,
	// keeps at most keep newest members and returns the remaining cardinality.
	SlideWindow(ctx context.Context, key, member string, score, minScore float64, keep int64, expiration time.Duration) (int64, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	CompareAndExpire(ctx context.Context, key, value string, expiration time.Duration) (bool, error)
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redClient{cli: c}, nil
}

// options accepts both redis:// URLs and bare host:port addresses.
func options(cfg *config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *redClient) IncrExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, expiration)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *redClient) SlideWindow(ctx context.Context, key, member string, score, minScore float64, keep int64, expiration time.Duration) (int64, error) {
	var card *redis.IntCmd
	_, err := c.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, &redis.Z{Score: score, Member: member})
		p.ZRemRangeByScore(ctx, key, "-inf", "("+formatScore(minScore))
		if keep > 0 {
			p.ZRemRangeByRank(ctx, key, 0, -(keep + 1))
		}
		card = p.ZCard(ctx, key)
		p.Expire(ctx, key, expiration)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (c *redClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, expiration).Result()
}

var luaCompareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (c *redClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := luaCompareAndDelete.Run(ctx, c.cli, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var luaCompareAndExpire = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

func (c *redClient) CompareAndExpire(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	n, err := luaCompareAndExpire.Run(ctx, c.cli, []string{key}, value, expiration.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *redClient) Close() error { return c.cli.Close() }

// IsNil reports whether err is the redis "key does not exist" reply.
func IsNil(err error) bool { return err == redis.Nil }
