package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "arbbot:cooldown:"

// RedisStore keeps one hash per namespace: field = alert key, value = unix
// nanoseconds of the last alert.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(namespace string) string {
	return redisKeyPrefix + namespace
}

func (s *RedisStore) LoadCooldowns(ctx context.Context, namespace string) (map[string]time.Time, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(namespace)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(fields))
	for key, raw := range fields {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[key] = time.Unix(0, ns)
	}
	return out, nil
}

func (s *RedisStore) SaveCooldown(ctx context.Context, namespace, key string, sentAt time.Time) error {
	return s.client.HSet(ctx, redisKey(namespace), key, strconv.FormatInt(sentAt.UnixNano(), 10)).Err()
}

// DeleteCooldownsBefore removes entries sent at or before cutoff.
func (s *RedisStore) DeleteCooldownsBefore(ctx context.Context, namespace string, cutoff time.Time) error {
	entries, err := s.LoadCooldowns(ctx, namespace)
	if err != nil {
		return err
	}
	var stale []string
	for key, at := range entries {
		if !at.After(cutoff) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.client.HDel(ctx, redisKey(namespace), stale...).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
