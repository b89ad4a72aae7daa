package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/workcity/chat-admin/internal/logger"
)

const CookieName = "wc_session"

type ManagerConfig struct {
	TTL          time.Duration
	InitWait     time.Duration
	CookieSecure bool
}

// Manager binds a Store to each browser through the session cookie.
type Manager struct {
	storage Storage
	auth    AuthAPI
	cfg     ManagerConfig
}

func NewManager(storage Storage, auth AuthAPI, cfg ManagerConfig) *Manager {
	return &Manager{storage: storage, auth: auth, cfg: cfg}
}

type ctxKey struct{}

func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's Store, or nil outside Manager.Middleware.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(ctxKey{}).(*Store)
	return s
}

// Middleware attaches a Store to every request. Init runs in the background;
// the request waits for it at most InitWait and then proceeds, possibly with
// a Store that is still loading. A zero InitWait waits for the whole init
// timeout instead.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := m.sessionID(w, r)
		store := NewStore(sid, m.storage, m.auth, m.cfg.TTL)

		initCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), m.initTimeout())
		go func() {
			defer cancel()
			store.Init(initCtx)
		}()

		waitCtx, stop := context.WithTimeout(r.Context(), m.initWait())
		_ = store.Wait(waitCtx)
		stop()

		next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), store)))
	})
}

// Logout clears the Store and hands the browser a fresh session id.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	if store := FromContext(r.Context()); store != nil {
		if err := store.Logout(r.Context()); err != nil {
			logger.Ctx(r.Context()).Error().Err(err).Msg("session_clear_failed")
			return err
		}
	}
	m.setCookie(w, uuid.NewString())
	return nil
}

func (m *Manager) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	sid := uuid.NewString()
	m.setCookie(w, sid)
	return sid
}

func (m *Manager) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) initWait() time.Duration {
	if m.cfg.InitWait > 0 {
		return m.cfg.InitWait
	}
	return m.initTimeout()
}

func (m *Manager) initTimeout() time.Duration {
	if m.cfg.InitWait > 0 {
		return 5 * m.cfg.InitWait
	}
	return 10 * time.Second
}
