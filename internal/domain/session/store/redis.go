package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client     *redis.Client
	prefix     string
	maxPerUser int
}

// NewRedis builds a session store backed by redis. Token ownership lives in
// string keys, per-user insertion order in a list, so the oldest-session
// eviction works the same as the in-process backend.
func NewRedis(cfg RedisConfig, maxPerUser int) (Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis session store requires an address")
	}
	if maxPerUser <= 0 {
		maxPerUser = 5
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "luaspark"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisStore{client: client, prefix: prefix, maxPerUser: maxPerUser}, nil
}

func (s *redisStore) tokenKey(token string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, token)
}

func (s *redisStore) emailKey(email string) string {
	return fmt.Sprintf("%s:sessions:%s", s.prefix, email)
}

func (s *redisStore) Add(ctx context.Context, token, email string) error {
	if token == "" || email == "" {
		return fmt.Errorf("token and email required")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(token), email, 0)
	pipe.RPush(ctx, s.emailKey(email), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record session: %w", err)
	}

	for {
		count, err := s.client.LLen(ctx, s.emailKey(email)).Result()
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		if count <= int64(s.maxPerUser) {
			return nil
		}
		oldest, err := s.client.LPop(ctx, s.emailKey(email)).Result()
		if err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
		if err := s.client.Del(ctx, s.tokenKey(oldest)).Err(); err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
	}
}

func (s *redisStore) Resolve(ctx context.Context, token string) (string, error) {
	email, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return email, nil
}

func (s *redisStore) Remove(ctx context.Context, token string) error {
	email, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.tokenKey(token))
	pipe.LRem(ctx, s.emailKey(email), 0, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *redisStore) RemoveAll(ctx context.Context, email string) error {
	tokens, err := s.client.LRange(ctx, s.emailKey(email), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, s.tokenKey(token))
	}
	pipe.Del(ctx, s.emailKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove sessions: %w", err)
	}
	return nil
}

func (s *redisStore) Count(ctx context.Context, email string) (int, error) {
	count, err := s.client.LLen(ctx, s.emailKey(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return int(count), nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
