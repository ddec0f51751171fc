package utils

import (
	"context"
	"log"
	"time"

	"expertmeet/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// SignalClient carries room pub/sub and presence for call signaling.
	SignalClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitSignalCache initializes the Redis client used for signaling relay and presence.
func InitSignalCache() {
	SignalClient = newRedisClient(config.AppConfig.RedisSignalDB, "Signal")
}

// GetSignalClient returns the signaling Redis client.
func GetSignalClient() *redis.Client {
	if SignalClient == nil {
		InitSignalCache()
	}
	return SignalClient
}

// InitRedis initializes every Redis client the API process uses.
func InitRedis() {
	InitCache()
	InitSignalCache()
}
