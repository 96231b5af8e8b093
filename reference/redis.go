package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a reference Store backed by a single Redis hash keyed
// by source name.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store over the given client under the given
// namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, key: namespace + ":references"}
}

// Retrieve implements Store.
func (s *RedisStore) Retrieve(ctx context.Context, sourceName string) (*Reference, error) {
	data, err := s.client.HGet(ctx, s.key, sourceName).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve reference %q: %w", sourceName, err)
	}
	var ref Reference
	if err := json.Unmarshal([]byte(data), &ref); err != nil {
		return nil, fmt.Errorf("decode reference %q: %w", sourceName, err)
	}
	return &ref, nil
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, ref *Reference) error {
	return s.put(ctx, ref)
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, ref *Reference) error {
	return s.put(ctx, ref)
}

func (s *RedisStore) put(ctx context.Context, ref *Reference) error {
	if ref == nil || ref.SourceName == "" {
		return ErrMissingSourceName
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode reference %q: %w", ref.SourceName, err)
	}
	if err := s.client.HSet(ctx, s.key, ref.SourceName, data).Err(); err != nil {
		return fmt.Errorf("store reference %q: %w", ref.SourceName, err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]*Reference, error) {
	values, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	out := make([]*Reference, 0, len(values))
	for _, data := range values {
		var ref Reference
		if err := json.Unmarshal([]byte(data), &ref); err != nil {
			return nil, fmt.Errorf("decode reference: %w", err)
		}
		out = append(out, &ref)
	}
	return out, nil
}
