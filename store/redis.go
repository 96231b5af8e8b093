package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/arcanum-sec/workbench/stix"
)

// RedisStore is a Store backed by Redis. One RedisStore holds one object
// category under its own key namespace.
//
// Layout per namespace:
//
//	{ns}:object:{id}:{version}  record JSON
//	{ns}:versions:{id}          sorted set of version markers, scored by time
//	{ns}:ids                    set of logical ids
//
// Uniqueness of (id, version) is enforced with SET NX on the record key,
// which is the duplicate-key condition the import engine turns into a
// fatal error.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore returns a store over the given client, namespaced so
// multiple categories can share one Redis database.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) objectKey(id string, version stix.Timestamp) string {
	return fmt.Sprintf("%s:object:%s:%s", s.namespace, id, version)
}

func (s *RedisStore) versionsKey(id string) string {
	return s.namespace + ":versions:" + id
}

func (s *RedisStore) idsKey() string {
	return s.namespace + ":ids"
}

// RetrieveAll implements Store.
func (s *RedisStore) RetrieveAll(ctx context.Context, id string) ([]*Record, error) {
	versions, err := s.client.ZRange(ctx, s.versionsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", id, err)
	}
	out := make([]*Record, 0, len(versions))
	for _, v := range versions {
		data, err := s.client.Get(ctx, s.namespace+":object:"+id+":"+v).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("retrieve %s at %s: %w", id, v, err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode %s at %s: %w", id, v, err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

// RetrieveLatest implements Store.
func (s *RedisStore) RetrieveLatest(ctx context.Context, id string) (*Record, error) {
	versions, err := s.client.ZRevRange(ctx, s.versionsKey(id), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("latest version of %s: %w", id, err)
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return s.get(ctx, id, versions[0])
}

// RetrieveVersion implements Store.
func (s *RedisStore) RetrieveVersion(ctx context.Context, id string, version stix.Timestamp) (*Record, error) {
	return s.get(ctx, id, version.String())
}

func (s *RedisStore) get(ctx context.Context, id, version string) (*Record, error) {
	data, err := s.client.Get(ctx, s.namespace+":object:"+id+":"+version).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve %s at %s: %w", id, version, err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode %s at %s: %w", id, version, err)
	}
	return &rec, nil
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Object == nil {
		return ErrNilRecord
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Object.ID, err)
	}
	version := rec.VersionKey()

	created, err := s.client.SetNX(ctx, s.objectKey(rec.Object.ID, version), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create %s: %w", rec.Object.ID, err)
	}
	if !created {
		return ErrDuplicateVersion
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, s.versionsKey(rec.Object.ID), redis.Z{
		Score:  float64(version.UnixMilli()),
		Member: version.String(),
	})
	pipe.SAdd(ctx, s.idsKey(), rec.Object.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index %s: %w", rec.Object.ID, err)
	}
	return nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Object == nil {
		return ErrNilRecord
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Object.ID, err)
	}
	set, err := s.client.SetXX(ctx, s.objectKey(rec.Object.ID, rec.VersionKey()), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Object.ID, err)
	}
	if !set {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string, version stix.Timestamp) error {
	removed, err := s.client.Del(ctx, s.objectKey(id, version)).Result()
	if err != nil {
		return fmt.Errorf("delete %s at %s: %w", id, version, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, s.versionsKey(id), version.String())
	remaining := pipe.ZCard(ctx, s.versionsKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("unindex %s: %w", id, err)
	}
	if remaining.Val() == 0 {
		if err := s.client.SRem(ctx, s.idsKey(), id).Err(); err != nil {
			return fmt.Errorf("unindex %s: %w", id, err)
		}
	}
	return nil
}

// ListLatest implements Store.
func (s *RedisStore) ListLatest(ctx context.Context) ([]*Record, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.RetrieveLatest(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
