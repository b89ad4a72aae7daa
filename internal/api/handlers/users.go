package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/gate"
	"github.com/workcity/chat-admin/internal/views"
)

const (
	usersPath    = "/admin/users"
	userPageSize = 10
)

func userQuery(r *http.Request) domain.UserQuery {
	q := r.URL.Query()
	return domain.UserQuery{
		Page:   domain.ParsePage(q.Get("page")),
		Limit:  userPageSize,
		Search: clean(q.Get("search")),
		Role:   q.Get("role"),
		Status: q.Get("status"),
	}
}

func usersPagerHref(q domain.UserQuery) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return pagerHref(usersPath, v)
}

// ListUsers renders the user panel. htmx requests get only the rows, and
// free-text searches are debounced first.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	fragment := gate.IsHTMX(r)
	if fragment && r.URL.Query().Has("search") {
		if !h.settleSearch(w, r, "users") {
			return
		}
	}
	h.renderUsers(w, r, userQuery(r), "", fragment)
}

// renderUsers fetches one page of users and renders it. Failures render an
// empty table with the error above it.
func (h *AdminHandler) renderUsers(w http.ResponseWriter, r *http.Request, query domain.UserQuery, note string, fragment bool) {
	data := views.UserPanelData{CSRF: csrfField(r), Query: query, Notice: note, Users: []domain.User{}}
	status := http.StatusOK

	page, err := h.api.ListUsers(r.Context(), tokenFrom(r), query)
	if err != nil {
		if data.Error = upstreamFailed(w, r, h.sessions, err, msgLoadFailed); data.Error == "" {
			return
		}
		data.Notice = ""
		status = http.StatusBadGateway
	} else {
		data.Users = page.Users
		data.Pager = views.Pager{Page: domain.PageOrDefault(page.Page), TotalPages: page.TotalPages, Total: page.Total, Href: usersPagerHref(query)}
	}

	if fragment {
		render(w, r, status, views.UserRows(data))
		return
	}
	renderAdmin(w, r, status, views.TabUsers, "Users", views.UserPanel(data))
}

func (h *AdminHandler) NewUser(w http.ResponseWriter, r *http.Request) {
	h.renderUserForm(w, r, http.StatusOK, views.UserFormData{Input: domain.UserInput{Role: domain.RoleUser, Active: true}})
}

// EditUser pre-fills the form from the row values carried in the link.
func (h *AdminHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, _ := strconv.ParseBool(q.Get("active"))
	h.renderUserForm(w, r, http.StatusOK, views.UserFormData{
		ID: chi.URLParam(r, "id"),
		Input: domain.UserInput{
			Name:   clean(q.Get("name")),
			Email:  cleanEmail(q.Get("email")),
			Role:   q.Get("role"),
			Active: active,
		},
	})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	form := userForm(r)
	errs := validateForm(form)
	if form.Password == "" {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["password"] = "Password is required"
	}
	if errs != nil {
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, views.UserFormData{Input: form.input(), FieldErrors: errs})
		return
	}

	if err := h.api.CreateUser(r.Context(), tokenFrom(r), form.input()); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgSaveFailed)
		if msg == "" {
			return
		}
		h.renderUserForm(w, r, http.StatusBadGateway, views.UserFormData{Input: form.input(), Error: msg})
		return
	}
	h.renderUsers(w, r, domain.UserQuery{Page: 1, Limit: userPageSize}, noticeCreated, false)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form := userForm(r)
	form.Password = ""

	if errs := validateForm(form); errs != nil {
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, views.UserFormData{ID: id, Input: form.input(), FieldErrors: errs})
		return
	}

	if err := h.api.UpdateUser(r.Context(), tokenFrom(r), id, form.input()); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgSaveFailed)
		if msg == "" {
			return
		}
		h.renderUserForm(w, r, http.StatusBadGateway, views.UserFormData{ID: id, Input: form.input(), Error: msg})
		return
	}
	h.renderUsers(w, r, domain.UserQuery{Page: 1, Limit: userPageSize}, noticeUpdated, false)
}

// ConfirmDeleteUser asks before deleting. It does not contact the API.
func (h *AdminHandler) ConfirmDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	renderAdmin(w, r, http.StatusOK, views.TabUsers, "Delete user", views.Confirm(views.ConfirmData{
		CSRF:      csrfField(r),
		Title:     "Delete user",
		Message:   "Are you sure you want to delete this user? This cannot be undone.",
		Action:    usersPath + "/" + url.PathEscape(id) + "/delete",
		CancelURL: usersPath,
	}))
}

// DeleteUser issues one DELETE when confirmed, then renders the refetched
// list. Without confirmation nothing is sent.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !isConfirmed(r) {
		seeOther(w, r, usersPath)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.api.DeleteUser(r.Context(), tokenFrom(r), id); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgDeleteFailed)
		if msg == "" {
			return
		}
		renderAdmin(w, r, http.StatusBadGateway, views.TabUsers, "Users", views.UserPanel(views.UserPanelData{Error: msg, Users: []domain.User{}}))
		return
	}
	h.renderUsers(w, r, domain.UserQuery{Page: 1, Limit: userPageSize}, noticeDeleted, false)
}

func (h *AdminHandler) renderUserForm(w http.ResponseWriter, r *http.Request, status int, data views.UserFormData) {
	data.CSRF = csrfField(r)
	title := "Add user"
	if !data.IsNew() {
		title = "Edit user"
	}
	renderAdmin(w, r, status, views.TabUsers, title, views.UserForm(data))
}

func userForm(r *http.Request) UserForm {
	active, _ := strconv.ParseBool(r.PostFormValue("active"))
	return UserForm{
		Name:     clean(r.PostFormValue("name")),
		Email:    cleanEmail(r.PostFormValue("email")),
		Role:     r.PostFormValue("role"),
		Active:   active,
		Password: r.PostFormValue("password"),
	}
}

func (f UserForm) input() domain.UserInput {
	return domain.UserInput{Name: f.Name, Email: f.Email, Role: f.Role, Active: f.Active, Password: f.Password}
}
