package handlers

import (
	"net/http"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/gate"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/session"
	"github.com/workcity/chat-admin/internal/views"
)

// HomePath is where a successful login or signup lands.
const HomePath = "/inbox"

type AuthHandler struct {
	sessions Sessions
}

func NewAuthHandler(sessions Sessions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// LoginPage is the login entry point. Signed-in visitors go straight home.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s := storeFrom(r); s != nil && s.IsAuthenticated() {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, views.LoginData{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := LoginForm{
		Email:    cleanEmail(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if errs := validateForm(form); errs != nil {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, views.LoginData{Email: form.Email, FieldErrors: errs})
		return
	}

	store := storeFrom(r)
	if store == nil {
		h.renderLogin(w, r, http.StatusInternalServerError, views.LoginData{Email: form.Email, Error: session.MsgNetworkError})
		return
	}

	res := store.Login(r.Context(), form.Email, form.Password)
	if !res.Success {
		status := http.StatusUnauthorized
		if res.Error != session.MsgInvalidCredentials {
			status = http.StatusBadGateway
		}
		h.renderLogin(w, r, status, views.LoginData{Email: form.Email, Error: res.Error})
		return
	}

	logger.Ctx(r.Context()).Info().Str("user_id", store.Identity().ID.String()).Msg("login_succeeded")
	http.Redirect(w, r, HomePath, http.StatusSeeOther)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if s := storeFrom(r); s != nil && s.IsAuthenticated() {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
		return
	}
	h.renderSignup(w, r, http.StatusOK, views.SignupData{})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form := SignupForm{
		Name:            clean(r.PostFormValue("name")),
		Email:           cleanEmail(r.PostFormValue("email")),
		Phone:           clean(r.PostFormValue("phone")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	data := views.SignupData{Name: form.Name, Email: form.Email, Phone: form.Phone}

	if errs := validateForm(form); errs != nil {
		data.FieldErrors = errs
		h.renderSignup(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	store := storeFrom(r)
	if store == nil {
		data.Error = session.MsgNetworkError
		h.renderSignup(w, r, http.StatusInternalServerError, data)
		return
	}

	res := store.Signup(r.Context(), domain.SignupRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Phone:    form.Phone,
	})
	if !res.Success {
		data.Error = res.Error
		h.renderSignup(w, r, http.StatusBadRequest, data)
		return
	}

	http.Redirect(w, r, HomePath, http.StatusSeeOther)
}

// Logout clears the session without calling the API.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	seeOther(w, r, gate.LoginPath)
}

func (h *AuthHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	renderPanel(w, r, http.StatusOK, "Inbox", views.Inbox(gate.IdentityFrom(r.Context())))
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data views.LoginData) {
	data.CSRF = csrfField(r)
	render(w, r, status, views.Document("Sign in", "", views.Login(data)))
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, status int, data views.SignupData) {
	data.CSRF = csrfField(r)
	render(w, r, status, views.Document("Sign up", "", views.Signup(data)))
}
