package props

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNamespace = "dbm-sheets"

// Redis is a Backend that keeps each scope in a single Redis hash.
type Redis struct {
	client *redis.Client
}

type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedis connects to the Redis server at url (e.g. redis://localhost:6379/0).
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL (%w)", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed (%w)", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Scope(name string) Store {
	return &redisStore{
		client: r.client,
		key:    fmt.Sprintf("%v:%v", redisNamespace, name),
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	return v, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.HSet(ctx, s.key, key, value).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.HDel(ctx, s.key, key).Err()
}

func (s *redisStore) Update(ctx context.Context, batch Batch) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(batch.Set) > 0 {
			values := make([]any, 0, 2*len(batch.Set))
			for k, v := range batch.Set {
				values = append(values, k, v)
			}

			pipe.HSet(ctx, s.key, values...)
		}

		if len(batch.Delete) > 0 {
			pipe.HDel(ctx, s.key, batch.Delete...)
		}

		return nil
	})

	return err
}

func (s *redisStore) DeleteAll(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)

	return keys, nil
}
