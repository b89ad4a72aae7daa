package views

import (
	"context"
	"html/template"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workcity/chat-admin/internal/domain"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

var admin = &domain.Identity{ID: "1", Name: "Ann Lee", Email: "a@b.com", Role: domain.RoleAdmin, Active: true}

func TestLayout_HeaderShowsIdentity(t *testing.T) {
	out := renderString(t, Layout(LayoutData{Title: "Inbox", CSRFToken: "tok", Identity: admin, Body: "<p>child</p>"}))

	assert.Contains(t, out, "Ann Lee")
	assert.Contains(t, out, `<span class="avatar">AL</span>`)
	assert.Contains(t, out, `href="/admin"`)
	assert.Contains(t, out, "<p>child</p>")
	assert.Contains(t, out, "X-CSRF-Token")
	assert.Contains(t, out, "<title>Inbox · WorkCity Chat</title>")
}

func TestLayout_NonAdminHasNoAdminLink(t *testing.T) {
	user := &domain.Identity{Name: "Bob", Role: domain.RoleUser, Active: true}
	out := renderString(t, Layout(LayoutData{Identity: user}))
	assert.NotContains(t, out, `href="/admin"`)
}

func TestLoading_RefreshesAndHasNoChild(t *testing.T) {
	out := renderString(t, Loading())
	assert.Contains(t, out, `http-equiv="refresh"`)
	assert.Contains(t, out, `role="status"`)
	assert.NotContains(t, out, "<header")
}

func TestDocument_WrapsBody(t *testing.T) {
	out := renderString(t, Document("Sign in", "", Login(LoginData{Email: "a@b.com", Error: "Invalid credentials"})))
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `value="a@b.com"`)
	assert.Contains(t, out, "Invalid credentials")
	assert.NotContains(t, out, "hx-headers")
}

func TestLogin_EscapesInput(t *testing.T) {
	out := renderString(t, Login(LoginData{Email: `"><script>x</script>`}))
	assert.NotContains(t, out, "<script>x</script>")
}

func TestSignup_FieldErrors(t *testing.T) {
	out := renderString(t, Signup(SignupData{FieldErrors: map[string]string{"password": "Password must be at least 6 characters"}}))
	assert.Contains(t, out, "Password must be at least 6 characters")
}

func TestAdminTabs_MarksActive(t *testing.T) {
	out := renderString(t, AdminTabs(TabUsers, UserPanel(UserPanelData{})))
	assert.Contains(t, out, `href="/admin/users" class="active"`)
	assert.Contains(t, out, "No users found")
	assert.Contains(t, out, `hx-trigger="keyup changed delay:500ms, search"`)
}

func TestUserRows_PagerAndRows(t *testing.T) {
	out := renderString(t, UserRows(UserPanelData{
		Users: []domain.User{{ID: "u1", Name: "Ann", Email: "a@b.com", Role: "admin", Active: true}},
		Pager: Pager{Page: 2, TotalPages: 3, Href: "/admin/users?page="},
	}))
	assert.Contains(t, out, `/admin/users/u1/delete`)
	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, "Previous")
	assert.Contains(t, out, "Next")
}

func TestUserForm_NewHasPassword(t *testing.T) {
	out := renderString(t, UserForm(UserFormData{}))
	assert.Contains(t, out, `name="password"`)
	assert.Contains(t, out, `action="/admin/users"`)

	out = renderString(t, UserForm(UserFormData{ID: "u1", Input: domain.UserInput{Role: "moderator"}}))
	assert.NotContains(t, out, `name="password"`)
	assert.Contains(t, out, `action="/admin/users/u1"`)
	assert.Contains(t, out, `<option value="moderator" selected>`)
}

func TestRoleForm_ChecksPermissions(t *testing.T) {
	out := renderString(t, RoleForm(RoleFormData{Input: domain.RoleInput{Permissions: []string{"manage_users"}}}))
	assert.Contains(t, out, `value="manage_users" checked`)
	assert.NotContains(t, out, `value="system_admin" checked`)
}

func TestMessageRows(t *testing.T) {
	out := renderString(t, MessageRows(MessagePanelData{Messages: []domain.Message{{ID: "m1", Content: "hello", Flagged: true}}}))
	assert.Contains(t, out, `class="flagged"`)
	assert.Contains(t, out, "Unflag")
	assert.Contains(t, out, `value="m1"`)
}

func TestConfirm_CarriesValues(t *testing.T) {
	out := renderString(t, Confirm(ConfirmData{
		CSRF:      template.HTML(`<input type="hidden" name="gorilla.csrf.Token" value="t">`),
		Title:     "Delete user",
		Action:    "/admin/users/u1/delete",
		CancelURL: "/admin/users",
		Values:    map[string][]string{"messageIds": {"m1", "m2"}},
	}))
	assert.Contains(t, out, `name="confirm" value="yes"`)
	assert.Contains(t, out, `href="/admin/users"`)
	assert.Equal(t, 2, strings.Count(out, `name="messageIds"`))
	assert.Contains(t, out, "gorilla.csrf.Token")
}

func TestAnalytics_Renders(t *testing.T) {
	out := renderString(t, Analytics(AnalyticsData{
		Range: domain.Range30d,
		Stats: &domain.Stats{Overview: domain.Overview{TotalUsers: 12}},
		Analytics: &domain.Analytics{
			MessageStats: []domain.DataPoint{{Label: "Mon", Value: 5}, {Label: "Tue", Value: 10}},
		},
	}))
	assert.Contains(t, out, `<option value="30d" selected>`)
	assert.Contains(t, out, "<strong>12</strong>")
	assert.Contains(t, out, "width: 50%")
	assert.Contains(t, out, "width: 100%")
}

func TestRenderBio(t *testing.T) {
	out, err := RenderBio("**bold** <script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>bold</strong>")
	assert.NotContains(t, string(out), "<script>")

	out, err = RenderBio("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAccessDenied(t *testing.T) {
	out := renderString(t, AccessDenied(domain.RoleAdmin))
	assert.Contains(t, out, "Access Denied")
	assert.Contains(t, out, "admin")
}
