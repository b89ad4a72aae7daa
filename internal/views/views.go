// Package views holds the console's pages as templ components backed by
// embedded html/template files.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/workcity/chat-admin/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

var funcs = template.FuncMap{
	"initials": func(id *domain.Identity) string { return id.Initials() },
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"has": func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	},
	"pct": func(v, max int) int {
		if max <= 0 {
			return 0
		}
		return v * 100 / max
	},
	"maxValue": func(points []domain.DataPoint) int {
		m := 0
		for _, p := range points {
			if p.Value > m {
				m = p.Value
			}
		}
		return m
	},
	"maxMessages": func(channels []domain.ChannelStat) int {
		m := 0
		for _, c := range channels {
			if c.Messages > m {
				m = c.Messages
			}
		}
		return m
	},
	"when": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 15:04")
	},
	"whenPtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "Never"
		}
		return t.Format("Jan 2, 2006")
	},
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

// HTML renders c into a string that can be embedded in another page.
func HTML(ctx context.Context, c templ.Component) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func withBody(body templ.Component, fn func(template.HTML) templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		inner, err := HTML(ctx, body)
		if err != nil {
			return err
		}
		return fn(inner).Render(ctx, w)
	})
}

type DocumentData struct {
	Title     string
	CSRFToken string
	Body      template.HTML
}

// Document is the bare HTML page used by screens outside the gate.
func Document(title, csrfToken string, body templ.Component) templ.Component {
	return withBody(body, func(inner template.HTML) templ.Component {
		return render("document", DocumentData{Title: title, CSRFToken: csrfToken, Body: inner})
	})
}

type LayoutData struct {
	Title     string
	CSRFToken string
	Identity  *domain.Identity
	Access    domain.ConsoleAccess
	Body      template.HTML
}

// Layout is the authenticated shell: header with the identity summary
// around an already rendered body.
func Layout(data LayoutData) templ.Component {
	data.Access = domain.CalculateConsoleAccess(data.Identity)
	return render("layout", data)
}

func Header(id *domain.Identity) templ.Component {
	return render("header", LayoutData{Identity: id, Access: domain.CalculateConsoleAccess(id)})
}

// Loading is the neutral placeholder shown while a session is restored.
// It refreshes itself after a second.
func Loading() templ.Component {
	return render("loading", nil)
}

type AccessDeniedData struct {
	Role string
}

func AccessDenied(role string) templ.Component {
	return render("access_denied", AccessDeniedData{Role: role})
}

type ConfirmData struct {
	CSRF      template.HTML
	Title     string
	Message   string
	Action    string
	CancelURL string
	Values    map[string][]string
}

// Confirm asks before a destructive request. Only the form's confirm=yes
// submission reaches the API.
func Confirm(data ConfirmData) templ.Component {
	return render("confirm", data)
}

type NoticeData struct {
	Kind    string
	Message string
}

// Notice is a standalone status line, used for htmx error fragments.
func Notice(kind, message string) templ.Component {
	return render("notice", NoticeData{Kind: kind, Message: message})
}
