package redis_client

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"

	"github.com/leeforge/gallery/config"
)

// NewRedis connects a go-redis client and verifies the connection with a
// ping before returning it.
func NewRedis(cnf config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cnf.Host, cnf.Port),
		Password: cnf.Password,
		DB:       cnf.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
