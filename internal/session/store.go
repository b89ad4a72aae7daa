package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/downstream"
	"github.com/workcity/chat-admin/internal/logger"
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgNetworkError       = "Network error"
)

var (
	ErrNotAuthenticated = errors.New("session: not authenticated")
	ErrTokenExpired     = errors.New("session: token already expired")
)

var authOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_admin_auth_attempts_total",
		Help: "Login and signup attempts by outcome",
	},
	[]string{"op", "outcome"},
)

// AuthAPI is the part of the remote API the Store talks to.
type AuthAPI interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error)
}

// Result is what Login and Signup report to the caller. They never fail
// with a Go error.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Store holds the signed-in Identity and its token for one browser session.
// Identity and token are always set together and cleared together, in
// memory and in Storage.
type Store struct {
	sid     string
	storage Storage
	auth    AuthAPI
	ttl     time.Duration

	mu       sync.RWMutex
	identity *domain.Identity
	token    string

	initOnce sync.Once
	ready    chan struct{}
}

func NewStore(sid string, storage Storage, auth AuthAPI, ttl time.Duration) *Store {
	return &Store{
		sid:     sid,
		storage: storage,
		auth:    auth,
		ttl:     ttl,
		ready:   make(chan struct{}),
	}
}

func (s *Store) SessionID() string { return s.sid }

// Init restores a previously persisted pair. A half-present pair or an
// identity that does not decode leaves the Store empty; Init never writes.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)

		token, raw, err := s.storage.Load(ctx, s.sid)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("session_restore_failed")
			return
		}
		if token == "" || raw == "" {
			return
		}

		var id domain.Identity
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("session_identity_corrupt")
			return
		}

		s.mu.Lock()
		s.identity = &id
		s.token = token
		s.mu.Unlock()
	})
}

// Wait blocks until Init has finished or ctx ends.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *Store) Identity() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

func (s *Store) Login(ctx context.Context, email, password string) Result {
	if err := s.Wait(ctx); err != nil {
		return s.record("login", Result{Error: MsgNetworkError})
	}

	resp, err := s.auth.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		logger.Ctx(ctx).Info().Err(err).Msg("login_rejected")
		if downstream.IsTransport(err) {
			return s.record("login", Result{Error: MsgNetworkError})
		}
		var se *downstream.StatusError
		if errors.As(err, &se) {
			return s.record("login", Result{Error: MsgInvalidCredentials})
		}
		return s.record("login", Result{Error: MsgNetworkError})
	}

	if err := s.establish(ctx, resp); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("login_persist_failed")
		return s.record("login", Result{Error: MsgNetworkError})
	}
	return s.record("login", Result{Success: true})
}

func (s *Store) Signup(ctx context.Context, req domain.SignupRequest) Result {
	if err := s.Wait(ctx); err != nil {
		return s.record("signup", Result{Error: MsgNetworkError})
	}

	resp, err := s.auth.Signup(ctx, req)
	if err != nil {
		logger.Ctx(ctx).Info().Err(err).Msg("signup_rejected")
		return s.record("signup", Result{Error: downstream.Message(err, MsgNetworkError)})
	}

	if err := s.establish(ctx, resp); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("signup_persist_failed")
		return s.record("signup", Result{Error: MsgNetworkError})
	}
	return s.record("signup", Result{Success: true})
}

// Logout clears memory first, then storage. It never calls the API.
func (s *Store) Logout(ctx context.Context) error {
	_ = s.Wait(ctx)

	s.mu.Lock()
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	return s.storage.Clear(ctx, s.sid)
}

// UpdateIdentity replaces the stored identity, keeping the current token.
func (s *Store) UpdateIdentity(ctx context.Context, id domain.Identity) error {
	token := s.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if err := s.persist(ctx, token, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	return nil
}

// establish persists the pair before exposing it in memory, so memory never
// claims an identity that storage lacks.
func (s *Store) establish(ctx context.Context, resp *domain.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("auth response without token")
	}
	if err := s.persist(ctx, resp.Token, resp.User); err != nil {
		return err
	}

	id := resp.User
	s.mu.Lock()
	s.identity = &id
	s.token = resp.Token
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(ctx context.Context, token string, id domain.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	ttl := TokenTTL(token, s.ttl)
	if ttl <= 0 {
		return ErrTokenExpired
	}
	return s.storage.Save(ctx, s.sid, token, string(raw), ttl)
}

func (s *Store) record(op string, r Result) Result {
	outcome := "success"
	if !r.Success {
		outcome = "failure"
	}
	authOutcomes.WithLabelValues(op, outcome).Inc()
	return r
}

// TokenTTL returns the time left before a JWT token's exp claim, or 0 when
// it has passed. Opaque tokens and tokens without exp get fallback.
func TokenTTL(token string, fallback time.Duration) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	if left := time.Until(exp.Time); left > 0 {
		return left
	}
	return 0
}
