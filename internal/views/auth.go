package views

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/workcity/chat-admin/internal/domain"
)

type LoginData struct {
	CSRF        template.HTML
	Email       string
	Error       string
	FieldErrors map[string]string
}

func Login(data LoginData) templ.Component {
	return render("login", data)
}

type SignupData struct {
	CSRF        template.HTML
	Name        string
	Email       string
	Phone       string
	Error       string
	FieldErrors map[string]string
}

func Signup(data SignupData) templ.Component {
	return render("signup", data)
}

type InboxData struct {
	Identity *domain.Identity
	Access   domain.ConsoleAccess
}

func Inbox(id *domain.Identity) templ.Component {
	return render("inbox", InboxData{Identity: id, Access: domain.CalculateConsoleAccess(id)})
}
