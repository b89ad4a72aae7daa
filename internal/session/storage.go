package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "wc:session:"

// Storage persists the token/identity pair of a browser session. Both
// entries are written together and removed together.
type Storage interface {
	// Load returns empty strings for entries that are absent.
	Load(ctx context.Context, sid string) (token, user string, err error)
	Save(ctx context.Context, sid, token, user string, ttl time.Duration) error
	Clear(ctx context.Context, sid string) error
}

// RedisStorage keeps each entry under its own key so a half-written pair
// is representable and can be detected by Load callers.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

func (s *RedisStorage) tokenKey(sid string) string { return s.prefix + sid + ":token" }
func (s *RedisStorage) userKey(sid string) string  { return s.prefix + sid + ":user" }

func (s *RedisStorage) Load(ctx context.Context, sid string) (string, string, error) {
	vals, err := s.rdb.MGet(ctx, s.tokenKey(sid), s.userKey(sid)).Result()
	if err != nil {
		return "", "", fmt.Errorf("load session: %w", err)
	}
	return asString(vals[0]), asString(vals[1]), nil
}

func (s *RedisStorage) Save(ctx context.Context, sid, token, user string, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(sid), token, ttl)
		pipe.Set(ctx, s.userKey(sid), user, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, s.tokenKey(sid), s.userKey(sid)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

type memoryEntry struct {
	token   string
	user    string
	expires time.Time
}

// MemoryStorage is the single-process Storage used when SESSION_STORE=memory.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStorage) Load(_ context.Context, sid string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sid]
	if !ok {
		return "", "", nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, sid)
		return "", "", nil
	}
	return e.token, e.user, nil
}

func (m *MemoryStorage) Save(_ context.Context, sid, token, user string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{token: token, user: user}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[sid] = e
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	delete(m.entries, sid)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Ping(context.Context) error { return nil }
