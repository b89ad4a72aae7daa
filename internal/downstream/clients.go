package downstream

import (
	"context"
	"net/http"

	"github.com/workcity/chat-admin/internal/domain"
)

// AuthClient calls the unauthenticated /auth endpoints.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

func (a *AuthClient) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/login", nil, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProfileClient serves the signed-in operator's own profile.
type ProfileClient struct {
	c *Client
}

func NewProfileClient(c *Client) *ProfileClient {
	return &ProfileClient{c: c}
}

func (p *ProfileClient) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	var out domain.Profile
	if err := p.c.doJSON(ctx, http.MethodGet, "/profile", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProfileClient) UpdateProfile(ctx context.Context, token string, in domain.ProfileUpdate) (*domain.Profile, error) {
	var out domain.Profile
	if err := p.c.doJSON(ctx, http.MethodPut, "/profile", nil, token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProfileClient) ChangePassword(ctx context.Context, token string, in domain.PasswordChange) error {
	return p.c.doJSON(ctx, http.MethodPut, "/profile/password", nil, token, in, nil)
}
