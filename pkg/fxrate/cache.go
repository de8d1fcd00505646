package fxrate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cacheKeyPrefix = "fxrate:"

// NewCachedProvider returns a Provider remembering rates fetched from next in Redis.
// Lookups falling in the same ttl window share one cached rate.
func NewCachedProvider(next Provider, client redis.UniversalClient, ttl time.Duration, logger log.Logger) Provider {
	return cachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.With(logger, "component", "fxrate-cache"),
	}
}

type cachedProvider struct {
	next   Provider
	client redis.UniversalClient
	ttl    time.Duration
	logger log.Logger
}

// GetRate implements Provider. Cache failures fall through to next.
func (c cachedProvider) GetRate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error) {
	key := c.key(from, to, at)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		rate, perr := decimal.NewFromString(cached)
		if perr == nil {
			return rate, nil
		}
		_ = level.Warn(c.logger).Log("method", "GetRate", "key", key, "err", perr)
	case !errors.Is(err, redis.Nil):
		_ = level.Warn(c.logger).Log("method", "GetRate", "key", key, "err", err)
	}

	rate, err := c.next.GetRate(ctx, from, to, at)
	if err != nil {
		return rate, err
	}
	if err := c.client.Set(ctx, key, rate.String(), c.ttl).Err(); err != nil {
		_ = level.Warn(c.logger).Log("method", "GetRate", "key", key, "err", err)
	}
	return rate, nil
}

func (c cachedProvider) key(from, to string, at time.Time) string {
	window := at.UTC()
	if c.ttl > 0 {
		window = window.Truncate(c.ttl)
	}
	return cacheKeyPrefix + strings.ToUpper(from) + ":" + strings.ToUpper(to) + ":" + window.Format(time.RFC3339)
}
