package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/Ramsey-B/clover/pkg/redis"
)

const (
	valueField   = "value"
	versionField = "version"
)

// RedisStore keeps each key as a hash of {value, version}. CompareAndSwap uses
// WATCH/MULTI so the version check holds across processes sharing the server.
type RedisStore struct {
	client *redisclient.Client
}

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	values, err := s.client.Redis().HMGet(ctx, key, valueField, versionField).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return decodeHash(values)
}

func decodeHash(values []any) (Entry, error) {
	if len(values) != 2 || values[1] == nil {
		return Entry{}, nil
	}

	version, err := strconv.ParseInt(fmt.Sprint(values[1]), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid version %v: %w", values[1], err)
	}

	entry := Entry{Version: version}
	if value, ok := values[0].(string); ok {
		entry.Value = []byte(value)
	}
	return entry, nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	rdb := s.client.Redis()
	next := version + 1

	err := rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, versionField).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, valueField, value, versionField, next)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, ErrVersionConflict
	default:
		return 0, fmt.Errorf("failed to write key %s: %w", key, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Redis().Del(ctx, keys...).Err()
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Redis().Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
