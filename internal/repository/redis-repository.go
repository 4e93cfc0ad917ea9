package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fiscal_service/internal/database/redis"

	redis_v9 "github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis_v9.Client
}

func NewRedisRepo() *RedisRepo {
	return &RedisRepo{
		client: redis.Redis_Client,
	}
}

func (rr *RedisRepo) SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error) {
	val, err := json.Marshal(model)
	if err != nil {
		return false, fmt.Errorf("error saving struct to cache: %s", err)
	}
	err = rr.client.Set(ctx, key, val, ttl).Err()
	if err != nil {
		return false, fmt.Errorf("error saving struct to cache: %s", err)
	}
	return true, nil
}

func (rr *RedisRepo) GetStructCached(ctx context.Context, key string, model any) error {
	encoded, err := rr.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("error getting struct from cache: %s", err)
	}
	return json.Unmarshal(encoded, model)
}

func (rr *RedisRepo) SaveInt(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	err := rr.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return false, fmt.Errorf("error saving int64 value to cache: %s", err)
	}
	return true, nil
}

func (rr *RedisRepo) GetInt(ctx context.Context, key string) int64 {
	value, err := rr.client.Get(ctx, key).Int64()
	if err != nil {
		log.Printf("error getting int64 value from cache: %s. Returning 0", err)
		return 0
	}
	return value
}

func (rr *RedisRepo) DeleteKey(ctx context.Context, key string) error {
	return rr.client.Del(ctx, key).Err()
}
