// internal/adapters/out/redis/preference_store.go
package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

var ErrEmptyKey = errors.New("redis prefs: key is empty")

// PreferenceStore keeps values under {prefix}:{key}. Unlike a cache it
// reports connectivity errors so callers can fall back.
type PreferenceStore struct {
	client *goredis.Client
	prefix string
}

// New creates a store with its own client.
func New(addr, password string, db int, prefix string) *PreferenceStore {
	opts := &goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return NewWithClient(goredis.NewClient(opts), prefix)
}

func NewWithClient(client *goredis.Client, prefix string) *PreferenceStore {
	return &PreferenceStore{client: client, prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
}

func (s *PreferenceStore) key(k string) (string, error) {
	k = strings.TrimSpace(k)
	if k == "" {
		return "", ErrEmptyKey
	}
	if s.prefix == "" {
		return k, nil
	}
	return s.prefix + ":" + k, nil
}

func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := s.key(key)
	if err != nil {
		return "", false, err
	}
	v, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value without expiry.
func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, k, value, 0).Err()
}

func (s *PreferenceStore) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, k).Err()
}

func (s *PreferenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *PreferenceStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
