package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	// Addr is host:port of the server. Defaults to localhost:6379.
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key. Defaults to [DefaultDatabase].
	Prefix string
}

// RedisStore keeps each map as a JSON string and indexes the IDs in a
// sorted set scored by update time.
//
// Keys:
//
//	<prefix>:map:<id>  map JSON
//	<prefix>:maps      sorted set of IDs, score = updatedAt
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultDatabase
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) mapKey(id string) string { return s.prefix + ":map:" + id }
func (s *RedisStore) indexKey() string        { return s.prefix + ":maps" }

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.mapKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}

	out := make([]Summary, 0, len(vals))
	for i, v := range vals {
		data, ok := v.(string)
		if !ok {
			// Index entry without a document; skip it.
			continue
		}
		var sum Summary
		if err := json.Unmarshal([]byte(data), &sum); err != nil {
			continue
		}
		if sum.ID == "" {
			sum.ID = ids[i]
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*mindmap.Map, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.mapKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get map %s: %w", id, err)
	}
	m, err := mindmap.ReadJSON(strings.NewReader(data))
	if err != nil {
		return nil, decodeErr(id, err)
	}
	return m, nil
}

func (s *RedisStore) Save(ctx context.Context, m *mindmap.Map) error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := mindmap.WriteJSON(m, &buf); err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.mapKey(m.ID), buf.String(), 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(m.UpdatedAt), Member: m.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save map %s: %w", m.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.mapKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete map %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
