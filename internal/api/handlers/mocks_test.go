package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/session"
)

type mockAdminAPI struct {
	mock.Mock
}

func (m *mockAdminAPI) Stats(ctx context.Context, token string) (*domain.Stats, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

func (m *mockAdminAPI) Analytics(ctx context.Context, token, timeRange string) (*domain.Analytics, error) {
	args := m.Called(ctx, token, timeRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analytics), args.Error(1)
}

func (m *mockAdminAPI) ListUsers(ctx context.Context, token string, query domain.UserQuery) (*domain.UserPage, error) {
	args := m.Called(ctx, token, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserPage), args.Error(1)
}

func (m *mockAdminAPI) CreateUser(ctx context.Context, token string, in domain.UserInput) error {
	return m.Called(ctx, token, in).Error(0)
}

func (m *mockAdminAPI) UpdateUser(ctx context.Context, token, id string, in domain.UserInput) error {
	return m.Called(ctx, token, id, in).Error(0)
}

func (m *mockAdminAPI) DeleteUser(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *mockAdminAPI) ListRoles(ctx context.Context, token string) (*domain.RolePage, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RolePage), args.Error(1)
}

func (m *mockAdminAPI) CreateRole(ctx context.Context, token string, in domain.RoleInput) error {
	return m.Called(ctx, token, in).Error(0)
}

func (m *mockAdminAPI) UpdateRole(ctx context.Context, token, id string, in domain.RoleInput) error {
	return m.Called(ctx, token, id, in).Error(0)
}

func (m *mockAdminAPI) DeleteRole(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *mockAdminAPI) ListMessages(ctx context.Context, token string, query domain.MessageQuery) (*domain.MessagePage, error) {
	args := m.Called(ctx, token, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessagePage), args.Error(1)
}

func (m *mockAdminAPI) FlagMessage(ctx context.Context, token, id string, flagged bool) error {
	return m.Called(ctx, token, id, flagged).Error(0)
}

func (m *mockAdminAPI) DeleteMessage(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *mockAdminAPI) BulkDeleteMessages(ctx context.Context, token string, ids []string) error {
	return m.Called(ctx, token, ids).Error(0)
}

type mockProfileAPI struct {
	mock.Mock
}

func (m *mockProfileAPI) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileAPI) UpdateProfile(ctx context.Context, token string, in domain.ProfileUpdate) (*domain.Profile, error) {
	args := m.Called(ctx, token, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileAPI) ChangePassword(ctx context.Context, token string, in domain.PasswordChange) error {
	return m.Called(ctx, token, in).Error(0)
}

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResponse), args.Error(1)
}

func (m *mockAuthAPI) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResponse), args.Error(1)
}

// fakeSessions logs the request's store out, like session.Manager.
type fakeSessions struct {
	calls int
}

func (f *fakeSessions) Logout(w http.ResponseWriter, r *http.Request) error {
	f.calls++
	if s := session.FromContext(r.Context()); s != nil {
		return s.Logout(r.Context())
	}
	return nil
}

const testToken = "T"

var admin = domain.Identity{ID: "1", Name: "Ann Lee", Email: "a@b.com", Role: domain.RoleAdmin, Active: true}

// newStore returns an initialized store, signed in as id when id is non-nil.
func newStore(t *testing.T, storage session.Storage, auth session.AuthAPI, id *domain.Identity) *session.Store {
	t.Helper()
	if storage == nil {
		storage = session.NewMemoryStorage()
	}
	if id != nil {
		raw, err := json.Marshal(id)
		require.NoError(t, err)
		require.NoError(t, storage.Save(context.Background(), "sid", testToken, string(raw), time.Hour))
	}
	s := session.NewStore("sid", storage, auth, time.Hour)
	s.Init(context.Background())
	return s
}

func newRequest(method, target string, form url.Values, store *session.Store, params map[string]string) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := req.Context()
	if store != nil {
		ctx = session.WithStore(ctx, store)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
