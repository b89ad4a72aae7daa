// Package gate decides, per request, whether a protected page may render.
package gate

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/views"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/"

type State int

const (
	Loading State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

var decisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_admin_gate_decisions_total",
		Help: "Access gate outcomes",
	},
	[]string{"state"},
)

// Session is what the gate needs to know about the browser session.
type Session interface {
	Loading() bool
	IsAuthenticated() bool
	Identity() *domain.Identity
}

// Evaluate is a pure function of the session's loading flag and identity.
// A nil session is unauthorized.
func Evaluate(s Session) State {
	if s == nil {
		return Unauthorized
	}
	if s.Loading() {
		return Loading
	}
	if s.IsAuthenticated() {
		return Authorized
	}
	return Unauthorized
}

// Gate guards handlers behind an authenticated session.
type Gate struct {
	lookup func(*http.Request) Session
}

// New builds a Gate. lookup returns the request's session, or nil.
func New(lookup func(*http.Request) Session) *Gate {
	return &Gate{lookup: lookup}
}

type identityKey struct{}

// IdentityFrom returns the identity the gate authorized, or nil.
func IdentityFrom(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(identityKey{}).(*domain.Identity)
	return id
}

// Protect renders next only for an authorized session. Full page responses
// get the shared header around them; htmx fragments and redirects are
// passed through untouched.
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := g.lookup(r)
		state := Evaluate(s)
		decisions.WithLabelValues(state.String()).Inc()

		switch state {
		case Loading:
			w.Header().Set("Cache-Control", "no-store")
			templ.Handler(views.Loading()).ServeHTTP(w, r)
			return
		case Unauthorized:
			redirectToLogin(w, r)
			return
		}

		id := s.Identity()
		r = r.WithContext(context.WithValue(r.Context(), identityKey{}, id))

		if IsHTMX(r) {
			next.ServeHTTP(w, r)
			return
		}

		capture := newResponseBuffer()
		next.ServeHTTP(capture, r)

		copyHeaders(w.Header(), capture.Header())
		if capture.statusCode >= 300 && capture.statusCode < 400 {
			w.WriteHeader(capture.statusCode)
			_, _ = w.Write(capture.body.Bytes())
			return
		}

		// read again: next may have changed the identity
		page := views.Layout(views.LayoutData{
			Title:     capture.Header().Get(TitleHeader),
			CSRFToken: csrf.Token(r),
			Identity:  s.Identity(),
			Body:      capture.html(),
		})
		w.Header().Del(TitleHeader)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(capture.statusCode)
		if err := page.Render(r.Context(), w); err != nil {
			logger.Ctx(r.Context()).Error().Err(err).Msg("layout_render_failed")
		}
	})
}

// RequireRole renders Access Denied for authorized identities without role.
// It must run inside Protect.
func (g *Gate) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil || id.Role != role || !id.Active {
				decisions.WithLabelValues("denied").Inc()
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				_ = views.AccessDenied(role).Render(r.Context(), w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin sends the browser to the login entry point.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectToLogin(w, r)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", LoginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// TitleHeader lets a protected handler name its page without rendering the
// document itself. The gate strips it before responding.
const TitleHeader = "X-Page-Title"

// SetTitle names the page a protected handler is rendering.
func SetTitle(w http.ResponseWriter, title string) {
	w.Header().Set(TitleHeader, title)
}

type responseBuffer struct {
	header      http.Header
	statusCode  int
	body        bytes.Buffer
	headerWrote bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), statusCode: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.headerWrote {
		return
	}
	b.headerWrote = true
	b.statusCode = status
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if !b.headerWrote {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}

func (b *responseBuffer) html() template.HTML {
	return template.HTML(b.body.String())
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if strings.EqualFold(key, "Set-Cookie") {
			for _, v := range values {
				dst.Add(key, v)
			}
			continue
		}
		for _, v := range values {
			dst.Set(key, v)
		}
	}
}
