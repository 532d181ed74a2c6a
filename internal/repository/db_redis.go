// Package repository contains the repository layer for the admin API
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens a Redis client and checks it with a PING
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr(), err)
	}
	return redisClient, nil
}
