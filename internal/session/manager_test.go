package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowStorage struct {
	*MemoryStorage
	delay time.Duration
}

func (s *slowStorage) Load(ctx context.Context, sid string) (string, string, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
	return s.MemoryStorage.Load(ctx, sid)
}

func captureStore(t *testing.T, m *Manager, req *http.Request) (*Store, *httptest.ResponseRecorder) {
	t.Helper()
	var got *Store
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, got)
	return got, rec
}

func TestManager_IssuesCookie(t *testing.T) {
	m := NewManager(NewMemoryStorage(), nil, ManagerConfig{TTL: time.Hour, InitWait: time.Second})

	store, rec := captureStore(t, m, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, c.Value, store.SessionID())
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
	assert.False(t, store.Loading())
}

func TestManager_ReusesValidCookieAndRestores(t *testing.T) {
	storage := NewMemoryStorage()
	sid := uuid.NewString()
	raw, _ := json.Marshal(ann)
	require.NoError(t, storage.Save(context.Background(), sid, "T", string(raw), time.Hour))

	m := NewManager(storage, nil, ManagerConfig{TTL: time.Hour, InitWait: time.Second})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: sid})

	store, rec := captureStore(t, m, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, sid, store.SessionID())
	assert.True(t, store.IsAuthenticated())
}

func TestManager_ReplacesGarbageCookie(t *testing.T) {
	m := NewManager(NewMemoryStorage(), nil, ManagerConfig{TTL: time.Hour, InitWait: time.Second})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "../../etc"})

	store, rec := captureStore(t, m, req)

	assert.NotEqual(t, "../../etc", store.SessionID())
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestManager_SlowInitStillLoading(t *testing.T) {
	storage := &slowStorage{MemoryStorage: NewMemoryStorage(), delay: 200 * time.Millisecond}
	m := NewManager(storage, nil, ManagerConfig{TTL: time.Hour, InitWait: 10 * time.Millisecond})

	store, _ := captureStore(t, m, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, store.Loading())
	require.NoError(t, store.Wait(context.Background()))
	assert.False(t, store.Loading())
}

func TestManager_ZeroInitWaitStillRestores(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	storage := NewRedisStorage(rdb, DefaultKeyPrefix)

	sid := uuid.NewString()
	raw, _ := json.Marshal(ann)
	require.NoError(t, storage.Save(context.Background(), sid, "T", string(raw), time.Hour))

	m := NewManager(storage, nil, ManagerConfig{TTL: time.Hour, InitWait: 0})

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: sid})

		store, _ := captureStore(t, m, req)

		require.False(t, store.Loading(), "request %d", i)
		assert.True(t, store.IsAuthenticated())
	}
}

func TestManager_LogoutRotatesCookie(t *testing.T) {
	storage := NewMemoryStorage()
	sid := uuid.NewString()
	raw, _ := json.Marshal(ann)
	require.NoError(t, storage.Save(context.Background(), sid, "T", string(raw), time.Hour))

	m := NewManager(storage, nil, ManagerConfig{TTL: time.Hour, InitWait: time.Second, CookieSecure: true})
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Logout(w, r))
	}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: sid})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, sid, cookies[0].Value)
	assert.True(t, cookies[0].Secure)

	token, user, _ := storage.Load(context.Background(), sid)
	assert.Empty(t, token)
	assert.Empty(t, user)
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
