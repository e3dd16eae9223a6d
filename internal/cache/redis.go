package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bonus-promotion-service/internal/basket"
)

const productKeyPrefix = "bonus:qualifying:"

// RedisProductCache stores qualifying-product lists in redis with a TTL.
// Redis errors are logged and treated as misses so a cache outage only
// costs extra qualification queries.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func (c *RedisProductCache) Get(ctx context.Context, promotionID string) ([]basket.BonusProduct, bool) {
	raw, err := c.client.Get(ctx, productKeyPrefix+promotionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("promotion_id", promotionID).Msg("product cache read")
		}
		return nil, false
	}
	var products []basket.BonusProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		log.Warn().Err(err).Str("promotion_id", promotionID).Msg("product cache decode")
		return nil, false
	}
	return products, true
}

func (c *RedisProductCache) Set(ctx context.Context, promotionID string, products []basket.BonusProduct) {
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKeyPrefix+promotionID, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("promotion_id", promotionID).Msg("product cache write")
	}
}
