package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/flowmesh/registry"
	"github.com/flowmesh/flowmesh/signature"
)

// Store implements registry.Store using Redis. Entries are optionally
// TTL'd, which fits a registry used as a cache in front of a slower
// signature source rather than as the sole copy of record.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Options configures a Store's Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key; default "flowmesh:sig:".
	Prefix string
	// TTL is the expiration applied to every entry; zero means no expiry.
	TTL time.Duration
}

// New creates a Redis-backed signature Store.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "flowmesh:sig:"
	}

	return &Store{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *Store) key(namespace, name string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, namespace, name)
}

func (s *Store) nsKey(namespace string) string {
	return fmt.Sprintf("%s%s:__names__", s.prefix, namespace)
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Put implements registry.Store.
func (s *Store) Put(namespace string, sig signature.OperationSignature) error {
	ctx := context.Background()
	body, err := registry.Encode(sig)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(namespace, sig.Name), body, s.ttl)
	pipe.SAdd(ctx, s.nsKey(namespace), sig.Name)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.nsKey(namespace), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("registry/redis: put %s::%s: %w", namespace, sig.Name, err)
	}
	return nil
}

// Get implements registry.Store.
func (s *Store) Get(namespace, name string) (signature.OperationSignature, bool, error) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, s.key(namespace, name)).Bytes()
	if err == redis.Nil {
		return signature.OperationSignature{}, false, nil
	}
	if err != nil {
		return signature.OperationSignature{}, false, fmt.Errorf("registry/redis: get %s::%s: %w", namespace, name, err)
	}
	sig, err := registry.Decode(data)
	if err != nil {
		return signature.OperationSignature{}, false, err
	}
	return sig, true, nil
}

// List implements registry.Store.
func (s *Store) List(namespace string) ([]signature.OperationSignature, error) {
	ctx := context.Background()
	names, err := s.client.SMembers(ctx, s.nsKey(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("registry/redis: list %s: %w", namespace, err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(namespace, n)
	}
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("registry/redis: fetch %s: %w", namespace, err)
	}

	var out []signature.OperationSignature
	for _, r := range results {
		if r == nil {
			continue
		}
		str, ok := r.(string)
		if !ok {
			continue
		}
		sig, err := registry.Decode([]byte(str))
		if err != nil {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

// Delete implements registry.Store.
func (s *Store) Delete(namespace, name string) error {
	ctx := context.Background()
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(namespace, name))
	pipe.SRem(ctx, s.nsKey(namespace), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("registry/redis: delete %s::%s: %w", namespace, name, err)
	}
	return nil
}

// Clear implements registry.Store.
func (s *Store) Clear(namespace string) error {
	ctx := context.Background()
	names, err := s.client.SMembers(ctx, s.nsKey(namespace)).Result()
	if err != nil {
		return fmt.Errorf("registry/redis: clear %s: %w", namespace, err)
	}
	pipe := s.client.Pipeline()
	for _, n := range names {
		pipe.Del(ctx, s.key(namespace, n))
	}
	pipe.Del(ctx, s.nsKey(namespace))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("registry/redis: clear %s: %w", namespace, err)
	}
	return nil
}
