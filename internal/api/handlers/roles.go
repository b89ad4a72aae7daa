package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/views"
)

const rolesPath = "/admin/roles"

func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	h.renderRoles(w, r, "")
}

func (h *AdminHandler) renderRoles(w http.ResponseWriter, r *http.Request, note string) {
	data := views.RolePanelData{Roles: []domain.Role{}, Notice: note}
	status := http.StatusOK

	page, err := h.api.ListRoles(r.Context(), tokenFrom(r))
	if err != nil {
		if data.Error = upstreamFailed(w, r, h.sessions, err, msgLoadFailed); data.Error == "" {
			return
		}
		data.Notice = ""
		status = http.StatusBadGateway
	} else {
		data.Roles = page.Roles
	}
	renderAdmin(w, r, status, views.TabRoles, "Roles", views.RolePanel(data))
}

func (h *AdminHandler) NewRole(w http.ResponseWriter, r *http.Request) {
	h.renderRoleForm(w, r, http.StatusOK, views.RoleFormData{})
}

// EditRole pre-fills the form from the role values carried in the link.
func (h *AdminHandler) EditRole(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderRoleForm(w, r, http.StatusOK, views.RoleFormData{
		ID: chi.URLParam(r, "id"),
		Input: domain.RoleInput{
			Name:        clean(q.Get("name")),
			Description: clean(q.Get("description")),
			Permissions: q["permissions"],
		},
	})
}

func (h *AdminHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	form := roleForm(r)
	if errs := validateForm(form); errs != nil {
		h.renderRoleForm(w, r, http.StatusUnprocessableEntity, views.RoleFormData{Input: form.input(), FieldErrors: errs})
		return
	}

	if err := h.api.CreateRole(r.Context(), tokenFrom(r), form.input()); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgSaveFailed)
		if msg == "" {
			return
		}
		h.renderRoleForm(w, r, http.StatusBadGateway, views.RoleFormData{Input: form.input(), Error: msg})
		return
	}
	h.renderRoles(w, r, noticeCreated)
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form := roleForm(r)
	if errs := validateForm(form); errs != nil {
		h.renderRoleForm(w, r, http.StatusUnprocessableEntity, views.RoleFormData{ID: id, Input: form.input(), FieldErrors: errs})
		return
	}

	if err := h.api.UpdateRole(r.Context(), tokenFrom(r), id, form.input()); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgSaveFailed)
		if msg == "" {
			return
		}
		h.renderRoleForm(w, r, http.StatusBadGateway, views.RoleFormData{ID: id, Input: form.input(), Error: msg})
		return
	}
	h.renderRoles(w, r, noticeUpdated)
}

func (h *AdminHandler) ConfirmDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	renderAdmin(w, r, http.StatusOK, views.TabRoles, "Delete role", views.Confirm(views.ConfirmData{
		CSRF:      csrfField(r),
		Title:     "Delete role",
		Message:   "Are you sure you want to delete this role?",
		Action:    rolesPath + "/" + url.PathEscape(id) + "/delete",
		CancelURL: rolesPath,
	}))
}

func (h *AdminHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if !isConfirmed(r) {
		seeOther(w, r, rolesPath)
		return
	}

	if err := h.api.DeleteRole(r.Context(), tokenFrom(r), chi.URLParam(r, "id")); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgDeleteFailed)
		if msg == "" {
			return
		}
		renderAdmin(w, r, http.StatusBadGateway, views.TabRoles, "Roles", views.RolePanel(views.RolePanelData{Roles: []domain.Role{}, Error: msg}))
		return
	}
	h.renderRoles(w, r, noticeDeleted)
}

func (h *AdminHandler) renderRoleForm(w http.ResponseWriter, r *http.Request, status int, data views.RoleFormData) {
	data.CSRF = csrfField(r)
	title := "Add role"
	if !data.IsNew() {
		title = "Edit role"
	}
	renderAdmin(w, r, status, views.TabRoles, title, views.RoleForm(data))
}

func roleForm(r *http.Request) RoleForm {
	_ = r.ParseForm()
	perms := r.PostForm["permissions"]
	if perms == nil {
		perms = []string{}
	}
	return RoleForm{
		Name:        clean(r.PostFormValue("name")),
		Description: clean(r.PostFormValue("description")),
		Permissions: perms,
	}
}

func (f RoleForm) input() domain.RoleInput {
	return domain.RoleInput{Name: f.Name, Description: f.Description, Permissions: f.Permissions}
}
