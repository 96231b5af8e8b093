package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdStore is a subscription Store backed by etcd. Records are JSON
// values under "<namespace>/subscriptions/<id>"; SetLastRetrieved uses
// a transaction on the key's mod revision for its compare-and-swap.
type EtcdStore struct {
	client    *clientv3.Client
	namespace string
}

// EtcdConfig configures the etcd connection for a subscription store.
type EtcdConfig struct {
	// Endpoints lists the etcd cluster endpoints.
	Endpoints []string

	// Namespace prefixes every key. Defaults to "workbench".
	Namespace string

	// DialTimeout bounds connection establishment. Defaults to 5s.
	DialTimeout time.Duration
}

// NewEtcdStore connects to etcd and returns a subscription store. The
// caller owns the store and must Close it.
func NewEtcdStore(cfg EtcdConfig) (*EtcdStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "workbench"
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create etcd client: %w", err)
	}
	return &EtcdStore{client: client, namespace: namespace}, nil
}

// Close releases the etcd connection.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}

func (s *EtcdStore) key(id string) string {
	return s.namespace + "/subscriptions/" + id
}

// Put implements Store.
func (s *EtcdStore) Put(ctx context.Context, sub *Subscription) error {
	if sub == nil || sub.ID == "" {
		return ErrMissingID
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription %s: %w", sub.ID, err)
	}
	if _, err := s.client.Put(ctx, s.key(sub.ID), string(data)); err != nil {
		return fmt.Errorf("store subscription %s: %w", sub.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *EtcdStore) Get(ctx context.Context, id string) (*Subscription, error) {
	resp, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	var sub Subscription
	if err := json.Unmarshal(resp.Kvs[0].Value, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription %s: %w", id, err)
	}
	return &sub, nil
}

// List implements Store.
func (s *EtcdStore) List(ctx context.Context) ([]*Subscription, error) {
	resp, err := s.client.Get(ctx, s.namespace+"/subscriptions/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]*Subscription, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var sub Subscription
		if err := json.Unmarshal(kv.Value, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription %s: %w", kv.Key, err)
		}
		out = append(out, &sub)
	}
	return out, nil
}

// Delete implements Store.
func (s *EtcdStore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Delete(ctx, s.key(id)); err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return nil
}

// SetLastRetrieved implements Store.
func (s *EtcdStore) SetLastRetrieved(ctx context.Context, id string, retrieved time.Time) error {
	key := s.key(id)
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return ErrNotFound
	}
	var sub Subscription
	if err := json.Unmarshal(resp.Kvs[0].Value, &sub); err != nil {
		return fmt.Errorf("decode subscription %s: %w", id, err)
	}
	sub.LastRetrieved = retrieved
	data, err := json.Marshal(&sub)
	if err != nil {
		return fmt.Errorf("encode subscription %s: %w", id, err)
	}

	txn, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", resp.Kvs[0].ModRevision)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", id, err)
	}
	if !txn.Succeeded {
		return ErrConflict
	}
	return nil
}
