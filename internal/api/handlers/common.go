package handlers

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/gorilla/csrf"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/downstream"
	"github.com/workcity/chat-admin/internal/gate"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/session"
	"github.com/workcity/chat-admin/internal/views"
)

// AdminAPI is the remote admin surface the console panels use.
type AdminAPI interface {
	Stats(ctx context.Context, token string) (*domain.Stats, error)
	Analytics(ctx context.Context, token, timeRange string) (*domain.Analytics, error)

	ListUsers(ctx context.Context, token string, query domain.UserQuery) (*domain.UserPage, error)
	CreateUser(ctx context.Context, token string, in domain.UserInput) error
	UpdateUser(ctx context.Context, token, id string, in domain.UserInput) error
	DeleteUser(ctx context.Context, token, id string) error

	ListRoles(ctx context.Context, token string) (*domain.RolePage, error)
	CreateRole(ctx context.Context, token string, in domain.RoleInput) error
	UpdateRole(ctx context.Context, token, id string, in domain.RoleInput) error
	DeleteRole(ctx context.Context, token, id string) error

	ListMessages(ctx context.Context, token string, query domain.MessageQuery) (*domain.MessagePage, error)
	FlagMessage(ctx context.Context, token, id string, flagged bool) error
	DeleteMessage(ctx context.Context, token, id string) error
	BulkDeleteMessages(ctx context.Context, token string, ids []string) error
}

type ProfileAPI interface {
	GetProfile(ctx context.Context, token string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, token string, in domain.ProfileUpdate) (*domain.Profile, error)
	ChangePassword(ctx context.Context, token string, in domain.PasswordChange) error
}

// Sessions ends a browser session and rotates its cookie.
type Sessions interface {
	Logout(w http.ResponseWriter, r *http.Request) error
}

const (
	msgLoadFailed   = "Failed to load data"
	msgSaveFailed   = "Failed to save changes"
	msgDeleteFailed = "Failed to delete"
)

func storeFrom(r *http.Request) *session.Store {
	return session.FromContext(r.Context())
}

func tokenFrom(r *http.Request) string {
	if s := storeFrom(r); s != nil {
		return s.Token()
	}
	return ""
}

func csrfField(r *http.Request) template.HTML {
	return csrf.TemplateField(r)
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("render_failed")
	}
}

// renderPanel renders a protected page. The gate adds the document and
// header around it.
func renderPanel(w http.ResponseWriter, r *http.Request, status int, title string, c templ.Component) {
	gate.SetTitle(w, title)
	render(w, r, status, c)
}

func renderAdmin(w http.ResponseWriter, r *http.Request, status int, tab, title string, panel templ.Component) {
	renderPanel(w, r, status, title, views.AdminTabs(tab, panel))
}

// upstreamFailed handles an API error for an authenticated call. A rejected
// token ends the session and sends the browser to login; it returns "" in
// that case. Otherwise it returns the message to show near the control.
func upstreamFailed(w http.ResponseWriter, r *http.Request, sessions Sessions, err error, fallback string) string {
	log := logger.Ctx(r.Context())
	if downstream.IsUnauthorized(err) {
		log.Info().Msg("api_token_rejected")
		if sessions != nil {
			if lerr := sessions.Logout(w, r); lerr != nil {
				log.Error().Err(lerr).Msg("logout_after_401_failed")
			}
		}
		gate.RedirectToLogin(w, r)
		return ""
	}
	log.Warn().Err(err).Msg("api_call_failed")
	return downstream.Message(err, fallback)
}

func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	if gate.IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

const (
	noticeCreated   = "Created successfully"
	noticeUpdated   = "Updated successfully"
	noticeDeleted   = "Deleted successfully"
	noticeFlagged   = "Message flagged"
	noticeUnflagged = "Message unflagged"
)

func isConfirmed(r *http.Request) bool {
	return r.PostFormValue("confirm") == "yes"
}

// pagerHref returns base with v and a trailing "page=" the pager appends to.
func pagerHref(base string, v url.Values) string {
	if len(v) == 0 {
		return base + "?page="
	}
	return base + "?" + v.Encode() + "&page="
}
