package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"drive-auth/internal/repository"
)

// Claves del namespace de sesión persistido, heredadas del sistema original.
const (
	prefKeyUserToken  = "user_token"
	prefKeyUserEmail  = "user_email"
	prefKeyIsLoggedIn = "is_logged_in"
)

// PrefsStore persiste el token de sesión fuera del record store.
// Get devuelve repository.ErrNotFound cuando la clave no existe.
type PrefsStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

type memoryPrefsStore struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryPrefsStore() PrefsStore {
	return &memoryPrefsStore{items: make(map[string]string)}
}

func (s *memoryPrefsStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *memoryPrefsStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (s *memoryPrefsStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

type redisPrefsClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisPrefsStore struct {
	client redisPrefsClient
	prefix string
}

func NewRedisPrefsStore(client *redis.Client) PrefsStore {
	if client == nil {
		return nil
	}
	return &redisPrefsStore{
		client: client,
		prefix: "auth:prefs:",
	}
}

func (s *redisPrefsStore) Put(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *redisPrefsStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", repository.ErrNotFound
	}
	return value, err
}

func (s *redisPrefsStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}
