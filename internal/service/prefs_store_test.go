package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"drive-auth/internal/repository"
)

type mockRedisPrefsClient struct {
	lastSetKey string
	lastSetVal interface{}
	lastSetTTL time.Duration
	lastGetKey string
	lastDel    []string

	setErr error
	getErr error
	delErr error
	getVal string
	getNil bool
}

func (m *mockRedisPrefsClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetVal = value
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisPrefsClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.lastGetKey = key
	cmd := redis.NewStringCmd(ctx)
	if m.getNil {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	cmd.SetVal(m.getVal)
	return cmd
}

func (m *mockRedisPrefsClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestMemoryPrefsStore_Basics(t *testing.T) {
	store := NewMemoryPrefsStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := store.Put(ctx, prefKeyUserToken, "auth_token_1_x"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	value, err := store.Get(ctx, prefKeyUserToken)
	if err != nil || value != "auth_token_1_x" {
		t.Fatalf("expected stored value back, got %q,%v", value, err)
	}

	if err := store.Remove(ctx, prefKeyUserToken); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.Get(ctx, prefKeyUserToken); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	// Remove de clave inexistente es un no-op.
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("remove of missing key must not fail: %v", err)
	}
}

func TestRedisPrefsStore_PutUsesPrefixAndNoTTL(t *testing.T) {
	client := &mockRedisPrefsClient{}
	store := &redisPrefsStore{client: client, prefix: "auth:prefs:"}

	if err := store.Put(context.Background(), prefKeyUserEmail, "a@b.com"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if client.lastSetKey != "auth:prefs:user_email" {
		t.Fatalf("unexpected key: %s", client.lastSetKey)
	}
	if client.lastSetVal != "a@b.com" {
		t.Fatalf("unexpected value: %v", client.lastSetVal)
	}
	if client.lastSetTTL != 0 {
		t.Fatalf("session prefs must not expire, got ttl %v", client.lastSetTTL)
	}
}

func TestRedisPrefsStore_GetMapsNilToNotFound(t *testing.T) {
	client := &mockRedisPrefsClient{getNil: true}
	store := &redisPrefsStore{client: client, prefix: "auth:prefs:"}

	_, err := store.Get(context.Background(), prefKeyUserToken)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for redis.Nil, got %v", err)
	}
	if client.lastGetKey != "auth:prefs:user_token" {
		t.Fatalf("unexpected key: %s", client.lastGetKey)
	}
}

func TestRedisPrefsStore_GetPropagatesErrors(t *testing.T) {
	client := &mockRedisPrefsClient{getErr: errors.New("redis down")}
	store := &redisPrefsStore{client: client, prefix: "auth:prefs:"}

	_, err := store.Get(context.Background(), prefKeyUserToken)
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected transport error surfaced, got %v", err)
	}
}

func TestRedisPrefsStore_Remove(t *testing.T) {
	client := &mockRedisPrefsClient{}
	store := &redisPrefsStore{client: client, prefix: "auth:prefs:"}

	if err := store.Remove(context.Background(), prefKeyIsLoggedIn); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(client.lastDel) != 1 || client.lastDel[0] != "auth:prefs:is_logged_in" {
		t.Fatalf("unexpected del keys: %v", client.lastDel)
	}
}
