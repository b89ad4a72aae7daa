package handlers

import (
	"net/http"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/views"
)

type ProfileHandler struct {
	api      ProfileAPI
	sessions Sessions
}

func NewProfileHandler(api ProfileAPI, sessions Sessions) *ProfileHandler {
	return &ProfileHandler{api: api, sessions: sessions}
}

func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	prof, err := h.api.GetProfile(r.Context(), tokenFrom(r))
	if err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, "Failed to load profile")
		if msg == "" {
			return
		}
		h.renderProfile(w, r, http.StatusBadGateway, views.ProfileData{Profile: h.fallbackProfile(r), Error: msg})
		return
	}
	h.syncIdentity(r, prof)
	h.renderProfile(w, r, http.StatusOK, views.ProfileData{Profile: *prof})
}

// Update saves the profile and rewrites the session identity with the
// API's answer.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	form := ProfileForm{
		Name:       clean(r.PostFormValue("name")),
		Email:      cleanEmail(r.PostFormValue("email")),
		Phone:      clean(r.PostFormValue("phone")),
		Department: clean(r.PostFormValue("department")),
		Position:   clean(r.PostFormValue("position")),
		Location:   clean(r.PostFormValue("location")),
		Timezone:   clean(r.PostFormValue("timezone")),
		Bio:        clean(r.PostFormValue("bio")),
	}
	submitted := h.fallbackProfile(r)
	submitted.Name, submitted.Email, submitted.Phone = form.Name, form.Email, form.Phone
	submitted.Department, submitted.Position = form.Department, form.Position
	submitted.Location, submitted.Timezone, submitted.Bio = form.Location, form.Timezone, form.Bio

	if errs := validateForm(form); errs != nil {
		h.renderProfile(w, r, http.StatusUnprocessableEntity, views.ProfileData{Profile: submitted, FieldErrors: errs})
		return
	}

	prof, err := h.api.UpdateProfile(r.Context(), tokenFrom(r), domain.ProfileUpdate{
		Name:       form.Name,
		Email:      form.Email,
		Phone:      form.Phone,
		Department: form.Department,
		Position:   form.Position,
		Bio:        form.Bio,
		Location:   form.Location,
		Timezone:   form.Timezone,
	})
	if err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, "Failed to update profile")
		if msg == "" {
			return
		}
		h.renderProfile(w, r, http.StatusBadGateway, views.ProfileData{Profile: submitted, Error: msg})
		return
	}

	h.syncIdentity(r, prof)
	h.renderProfile(w, r, http.StatusOK, views.ProfileData{Profile: *prof, Notice: "Profile updated successfully"})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	form := PasswordForm{
		CurrentPassword: r.PostFormValue("currentPassword"),
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	current := h.fallbackProfile(r)

	if errs := validateForm(form); errs != nil {
		h.renderProfile(w, r, http.StatusUnprocessableEntity, views.ProfileData{Profile: current, PasswordErrors: errs})
		return
	}

	err := h.api.ChangePassword(r.Context(), tokenFrom(r), domain.PasswordChange{
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
	})
	if err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, "Failed to change password")
		if msg == "" {
			return
		}
		h.renderProfile(w, r, http.StatusBadRequest, views.ProfileData{Profile: current, PasswordError: msg})
		return
	}
	h.renderProfile(w, r, http.StatusOK, views.ProfileData{Profile: current, PasswordNotice: "Password changed successfully"})
}

// fallbackProfile builds the form values from the session identity when the
// API profile is not at hand.
func (h *ProfileHandler) fallbackProfile(r *http.Request) domain.Profile {
	s := storeFrom(r)
	if s == nil {
		return domain.Profile{}
	}
	id := s.Identity()
	if id == nil {
		return domain.Profile{}
	}
	return domain.Profile{
		ID:           id.ID,
		Name:         id.Name,
		Email:        id.Email,
		Role:         id.Role,
		Active:       id.Active,
		ProfilePhoto: id.ProfilePhoto,
		Bio:          id.Bio,
		Phone:        id.Phone,
	}
}

func (h *ProfileHandler) syncIdentity(r *http.Request, prof *domain.Profile) {
	s := storeFrom(r)
	if s == nil {
		return
	}
	if err := s.UpdateIdentity(r.Context(), prof.Identity()); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("identity_sync_failed")
	}
}

func (h *ProfileHandler) renderProfile(w http.ResponseWriter, r *http.Request, status int, data views.ProfileData) {
	data.CSRF = csrfField(r)
	bio, err := views.RenderBio(data.Profile.Bio)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("bio_render_failed")
	}
	data.BioHTML = bio
	renderPanel(w, r, status, "Profile", views.Profile(data))
}
