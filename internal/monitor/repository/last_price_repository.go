package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stock-price-alert/pkg/common"

	redis "github.com/redis/go-redis/v9"
)

// LastPriceRepository records the most recent price fetched for a ticker so
// other tools (dashboards, scripts) can read it without hitting the price
// source.
type LastPriceRepository interface {
	Record(ctx context.Context, ticker string, price float64, at time.Time) error
	Get(ctx context.Context, ticker string) (price float64, at time.Time, err error)
}

// redisCmdable is the subset of the go-redis client the repository uses.
type redisCmdable interface {
	Pipeline() redis.Pipeliner
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

type redisLastPriceRepository struct {
	client redisCmdable
	ttl    time.Duration
}

// NewRedisLastPriceRepository stores last prices as hashes under
// last_price:<TICKER> with fields price and timestamp (unix seconds).
func NewRedisLastPriceRepository(client redisCmdable, ttl time.Duration) LastPriceRepository {
	return &redisLastPriceRepository{client: client, ttl: ttl}
}

func lastPriceKey(ticker string) string {
	return fmt.Sprintf(common.RedisKeyLastPrice, strings.ToUpper(ticker))
}

func (r *redisLastPriceRepository) Record(ctx context.Context, ticker string, price float64, at time.Time) error {
	key := lastPriceKey(ticker)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price":     price,
		"timestamp": at.Unix(),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisLastPriceRepository) Get(ctx context.Context, ticker string) (float64, time.Time, error) {
	values, err := r.client.HGetAll(ctx, lastPriceKey(ticker)).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(values) == 0 {
		return 0, time.Time{}, redis.Nil
	}
	price, err := strconv.ParseFloat(values["price"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("parse last price: %w", err)
	}
	unix, err := strconv.ParseInt(values["timestamp"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("parse last price timestamp: %w", err)
	}
	return price, time.Unix(unix, 0), nil
}
