package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expertmeet/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RuleCache caches a provider's rules per weekday. Cache errors never fail a read.
type RuleCache interface {
	Get(ctx context.Context, providerID string, day int) ([]models.AvailabilityRule, bool)
	Set(ctx context.Context, providerID string, day int, rules []models.AvailabilityRule)
	Invalidate(ctx context.Context, providerID string, day int)
	InvalidateAll(ctx context.Context, providerID string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, int) ([]models.AvailabilityRule, bool) { return nil, false }
func (noopCache) Set(context.Context, string, int, []models.AvailabilityRule)        {}
func (noopCache) Invalidate(context.Context, string, int)                            {}
func (noopCache) InvalidateAll(context.Context, string)                              {}

// RedisRuleCache stores rules as JSON under availability:<provider>:<day>.
type RedisRuleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisRuleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRuleCache {
	return &RedisRuleCache{client: client, ttl: ttl, logger: logger}
}

func ruleKey(providerID string, day int) string {
	return fmt.Sprintf("availability:%s:%d", providerID, day)
}

func (c *RedisRuleCache) Get(ctx context.Context, providerID string, day int) ([]models.AvailabilityRule, bool) {
	raw, err := c.client.Get(ctx, ruleKey(providerID, day)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var rules []models.AvailabilityRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		c.logger.Warn("availability cache entry corrupt", zap.String("key", ruleKey(providerID, day)), zap.Error(err))
		return nil, false
	}
	return rules, true
}

func (c *RedisRuleCache) Set(ctx context.Context, providerID string, day int, rules []models.AvailabilityRule) {
	raw, err := json.Marshal(rules)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, ruleKey(providerID, day), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", zap.Error(err))
	}
}

func (c *RedisRuleCache) Invalidate(ctx context.Context, providerID string, day int) {
	if err := c.client.Del(ctx, ruleKey(providerID, day)).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisRuleCache) InvalidateAll(ctx context.Context, providerID string) {
	keys := make([]string, 7)
	for day := 0; day < 7; day++ {
		keys[day] = ruleKey(providerID, day)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}
