package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/workcity/chat-admin/internal/debounce"
	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/views"
)

// AdminHandler serves the four console tabs.
type AdminHandler struct {
	api      AdminAPI
	sessions Sessions
	search   *debounce.Debouncer
}

func NewAdminHandler(api AdminAPI, sessions Sessions, search *debounce.Debouncer) *AdminHandler {
	if search == nil {
		search = debounce.New(0)
	}
	return &AdminHandler{api: api, sessions: sessions, search: search}
}

func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/analytics", http.StatusSeeOther)
}

// settleSearch coalesces htmx search keystrokes per session and panel.
// It returns false when a newer search superseded this one; the response
// has been written in that case.
func (h *AdminHandler) settleSearch(w http.ResponseWriter, r *http.Request, panel string) bool {
	key := panel
	if s := storeFrom(r); s != nil {
		key = s.SessionID() + ":" + panel
	}
	latest, err := h.search.Settle(r.Context(), key)
	if err != nil || !latest {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Ctx(r.Context()).Debug().Err(err).Str("panel", panel).Msg("search_abandoned")
		}
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	return true
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(r)
	data := views.AnalyticsData{Range: domain.NormalizeRange(r.URL.Query().Get("range"))}

	stats, err := h.api.Stats(ctx, token)
	if err != nil {
		if data.Error = upstreamFailed(w, r, h.sessions, err, "Failed to load statistics"); data.Error == "" {
			return
		}
	} else {
		data.Stats = stats
	}

	analytics, err := h.api.Analytics(ctx, token, data.Range)
	if err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, "Failed to load analytics")
		if msg == "" {
			return
		}
		if data.Error == "" {
			data.Error = msg
		}
	} else {
		data.Analytics = analytics
	}

	status := http.StatusOK
	if data.Error != "" {
		status = http.StatusBadGateway
	}
	renderAdmin(w, r, status, views.TabAnalytics, "Analytics", views.Analytics(data))
}
