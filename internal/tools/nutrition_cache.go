package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const nutritionKeyFmt = "nutrition:%s"

// CachedNutrition serves repeated food queries from Redis. Only successful
// lookups are cached; Redis failures fall through to the upstream lookup.
type CachedNutrition struct {
	next   NutritionLookup
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedNutrition(next NutritionLookup, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedNutrition {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedNutrition{next: next, rdb: rdb, ttl: ttl, logger: logger.Named("nutrition_cache")}
}

func nutritionKey(query string) string {
	return fmt.Sprintf(nutritionKeyFmt, strings.ToLower(strings.TrimSpace(query)))
}

func (c *CachedNutrition) Lookup(ctx context.Context, query string) (NutritionInfo, error) {
	key := nutritionKey(query)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var info NutritionInfo
		if jerr := json.Unmarshal(raw, &info); jerr == nil {
			return info, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	info, err := c.next.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if encoded, jerr := json.Marshal(info); jerr == nil {
		if serr := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); serr != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return info, nil
}
