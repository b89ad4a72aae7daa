package downstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/workcity/chat-admin/internal/domain"
)

// AdminClient covers the /admin resources behind the console tabs.
type AdminClient struct {
	c *Client
}

func NewAdminClient(c *Client) *AdminClient {
	return &AdminClient{c: c}
}

func (a *AdminClient) Stats(ctx context.Context, token string) (*domain.Stats, error) {
	var out domain.Stats
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/stats", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) Analytics(ctx context.Context, token, timeRange string) (*domain.Analytics, error) {
	q := url.Values{"range": {domain.NormalizeRange(timeRange)}}

	var out domain.Analytics
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/analytics", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) ListUsers(ctx context.Context, token string, query domain.UserQuery) (*domain.UserPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(domain.PageOrDefault(query.Page)))
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}
	setIfNotEmpty(q, "search", query.Search)
	setIfNotEmpty(q, "role", query.Role)
	setIfNotEmpty(q, "status", query.Status)

	var out domain.UserPage
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/users", q, token, nil, &out); err != nil {
		return nil, err
	}
	if out.Users == nil {
		out.Users = make([]domain.User, 0)
	}
	return &out, nil
}

func (a *AdminClient) CreateUser(ctx context.Context, token string, in domain.UserInput) error {
	return a.c.doJSON(ctx, http.MethodPost, "/admin/users", nil, token, in, nil)
}

func (a *AdminClient) UpdateUser(ctx context.Context, token, id string, in domain.UserInput) error {
	return a.c.doJSON(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), nil, token, in, nil)
}

func (a *AdminClient) DeleteUser(ctx context.Context, token, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, token, nil, nil)
}

func (a *AdminClient) ListRoles(ctx context.Context, token string) (*domain.RolePage, error) {
	var out domain.RolePage
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/roles", nil, token, nil, &out); err != nil {
		return nil, err
	}
	if out.Roles == nil {
		out.Roles = make([]domain.Role, 0)
	}
	return &out, nil
}

func (a *AdminClient) CreateRole(ctx context.Context, token string, in domain.RoleInput) error {
	return a.c.doJSON(ctx, http.MethodPost, "/admin/roles", nil, token, in, nil)
}

func (a *AdminClient) UpdateRole(ctx context.Context, token, id string, in domain.RoleInput) error {
	return a.c.doJSON(ctx, http.MethodPut, "/admin/roles/"+url.PathEscape(id), nil, token, in, nil)
}

func (a *AdminClient) DeleteRole(ctx context.Context, token, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/admin/roles/"+url.PathEscape(id), nil, token, nil, nil)
}

func (a *AdminClient) ListMessages(ctx context.Context, token string, query domain.MessageQuery) (*domain.MessagePage, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = domain.MessagePageSize
	}
	filter := query.Filter
	if filter == "" {
		filter = domain.MessageFilterAll
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(domain.PageOrDefault(query.Page)))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("filter", filter)
	q.Set("search", query.Search)

	var out domain.MessagePage
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/messages", q, token, nil, &out); err != nil {
		return nil, err
	}
	if out.Messages == nil {
		out.Messages = make([]domain.Message, 0)
	}
	return &out, nil
}

func (a *AdminClient) FlagMessage(ctx context.Context, token, id string, flagged bool) error {
	return a.c.doJSON(ctx, http.MethodPut, "/admin/messages/"+url.PathEscape(id)+"/flag", nil, token, domain.FlagRequest{Flagged: flagged}, nil)
}

func (a *AdminClient) DeleteMessage(ctx context.Context, token, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/admin/messages/"+url.PathEscape(id), nil, token, nil, nil)
}

func (a *AdminClient) BulkDeleteMessages(ctx context.Context, token string, ids []string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/admin/messages/bulk-delete", nil, token, domain.BulkDeleteRequest{MessageIDs: ids}, nil)
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
