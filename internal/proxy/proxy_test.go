package proxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workcity/chat-admin/internal/proxy"
	"github.com/workcity/chat-admin/middleware"
)

func staticToken(tok string) proxy.TokenSource {
	return func(*http.Request) string { return tok }
}

func TestProxy_RewritesPathAndInjectsBearer(t *testing.T) {
	type seen struct {
		path, host, auth, cookie, query string
	}
	ch := make(chan seen, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch <- seen{r.URL.Path, r.Host, r.Header.Get("Authorization"), r.Header.Get("Cookie"), r.URL.RawQuery}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api", "", staticToken("T"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://console/api/admin/users?page=2", nil)
	req.AddCookie(&http.Cookie{Name: "wc_session", Value: "secret-sid"})
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case got := <-ch:
		u, _ := url.Parse(upstream.URL)
		assert.Equal(t, "/admin/users", got.path)
		assert.Equal(t, u.Host, got.host)
		assert.Equal(t, "Bearer T", got.auth)
		assert.Empty(t, got.cookie)
		assert.Equal(t, "page=2", got.query)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for upstream request")
	}
}

func TestProxy_UnderChiMount(t *testing.T) {
	var receivedPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api", "", staticToken("T"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api", p)

	cases := map[string]string{
		"/api/profile":                "/profile",
		"/api/admin/messages/m1/flag": "/admin/messages/m1/flag",
		"/api/admin/analytics":        "/admin/analytics",
	}
	for in, want := range cases {
		receivedPath = ""
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, in, nil))
		assert.Equal(t, http.StatusOK, w.Code, in)
		assert.Equal(t, want, receivedPath, in)
	}
}

func TestProxy_RequestIDPropagation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-req-id", r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api", "", staticToken("T"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://console/api/profile", nil)
	ctx := middleware.SetRequestIDForTest(req.Context(), "test-req-id")
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProxy_NoTokenNeverReachesUpstream(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api", "", staticToken(""))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://console/api/admin/users", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthenticated")
	assert.False(t, called)
}

func TestProxy_UpstreamDown(t *testing.T) {
	p, err := proxy.New("http://localhost:54321", "/api", "", staticToken("T"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://console/api/profile", nil)
	ctx := middleware.SetRequestIDForTest(req.Context(), "req-123")
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	p.ServeHTTP(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")
	assert.Contains(t, w.Body.String(), "req-123")
}

func TestNew_InvalidTarget(t *testing.T) {
	_, err := proxy.New("://bad", "/api", "", staticToken("T"))
	assert.Error(t, err)
}
