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

const messagesPath = "/admin/messages"

func messageQuery(r *http.Request) domain.MessageQuery {
	q := r.URL.Query()
	filter := q.Get("filter")
	if !isMessageFilter(filter) {
		filter = domain.MessageFilterAll
	}
	return domain.MessageQuery{
		Page:   domain.ParsePage(q.Get("page")),
		Limit:  domain.MessagePageSize,
		Filter: filter,
		Search: clean(q.Get("search")),
	}
}

func isMessageFilter(v string) bool {
	for _, f := range domain.MessageFilters {
		if f == v {
			return true
		}
	}
	return false
}

func messagesPagerHref(q domain.MessageQuery) string {
	v := url.Values{}
	if q.Filter != domain.MessageFilterAll {
		v.Set("filter", q.Filter)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return pagerHref(messagesPath, v)
}

// ListMessages renders the moderation panel. htmx searches are debounced
// and answered with the rows only.
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	fragment := gate.IsHTMX(r)
	if fragment && r.URL.Query().Has("search") {
		if !h.settleSearch(w, r, "messages") {
			return
		}
	}
	h.renderMessages(w, r, messageQuery(r), "", fragment)
}

func (h *AdminHandler) renderMessages(w http.ResponseWriter, r *http.Request, query domain.MessageQuery, note string, fragment bool) {
	data := views.MessagePanelData{CSRF: csrfField(r), Query: query, Notice: note, Messages: []domain.Message{}}
	status := http.StatusOK

	page, err := h.api.ListMessages(r.Context(), tokenFrom(r), query)
	if err != nil {
		if data.Error = upstreamFailed(w, r, h.sessions, err, msgLoadFailed); data.Error == "" {
			return
		}
		data.Notice = ""
		status = http.StatusBadGateway
	} else {
		data.Messages = page.Messages
		data.Pager = views.Pager{Page: domain.PageOrDefault(page.Page), TotalPages: page.TotalPages, Total: page.Total, Href: messagesPagerHref(query)}
	}

	if fragment {
		render(w, r, status, views.MessageRows(data))
		return
	}
	renderAdmin(w, r, status, views.TabMessages, "Messages", views.MessagePanel(data))
}

func defaultMessageQuery() domain.MessageQuery {
	return domain.MessageQuery{Page: 1, Limit: domain.MessagePageSize, Filter: domain.MessageFilterAll}
}

// FlagMessage sets or clears the flag, then renders the refetched list.
func (h *AdminHandler) FlagMessage(w http.ResponseWriter, r *http.Request) {
	flagged, err := strconv.ParseBool(r.PostFormValue("flagged"))
	if err != nil {
		http.Error(w, "flagged must be true or false", http.StatusBadRequest)
		return
	}

	if err := h.api.FlagMessage(r.Context(), tokenFrom(r), chi.URLParam(r, "id"), flagged); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, "Failed to update message")
		if msg == "" {
			return
		}
		h.renderMessagesError(w, r, msg)
		return
	}

	note := noticeUnflagged
	if flagged {
		note = noticeFlagged
	}
	h.renderMessages(w, r, defaultMessageQuery(), note, false)
}

func (h *AdminHandler) ConfirmDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	renderAdmin(w, r, http.StatusOK, views.TabMessages, "Delete message", views.Confirm(views.ConfirmData{
		CSRF:      csrfField(r),
		Title:     "Delete message",
		Message:   "Are you sure you want to delete this message?",
		Action:    messagesPath + "/" + url.PathEscape(id) + "/delete",
		CancelURL: messagesPath,
	}))
}

func (h *AdminHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if !isConfirmed(r) {
		seeOther(w, r, messagesPath)
		return
	}

	if err := h.api.DeleteMessage(r.Context(), tokenFrom(r), chi.URLParam(r, "id")); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgDeleteFailed)
		if msg == "" {
			return
		}
		h.renderMessagesError(w, r, msg)
		return
	}
	h.renderMessages(w, r, defaultMessageQuery(), noticeDeleted, false)
}

// BulkDeleteMessages first asks for confirmation of the selected ids; the
// confirmed submission issues a single bulk DELETE. An empty selection
// sends nothing.
func (h *AdminHandler) BulkDeleteMessages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	ids := r.PostForm["messageIds"]
	if len(ids) == 0 {
		seeOther(w, r, messagesPath)
		return
	}

	if !isConfirmed(r) {
		renderAdmin(w, r, http.StatusOK, views.TabMessages, "Delete messages", views.Confirm(views.ConfirmData{
			CSRF:      csrfField(r),
			Title:     "Delete messages",
			Message:   "Are you sure you want to delete " + strconv.Itoa(len(ids)) + " selected messages?",
			Action:    messagesPath + "/bulk-delete",
			CancelURL: messagesPath,
			Values:    map[string][]string{"messageIds": ids},
		}))
		return
	}

	if err := h.api.BulkDeleteMessages(r.Context(), tokenFrom(r), ids); err != nil {
		msg := upstreamFailed(w, r, h.sessions, err, msgDeleteFailed)
		if msg == "" {
			return
		}
		h.renderMessagesError(w, r, msg)
		return
	}
	h.renderMessages(w, r, defaultMessageQuery(), noticeDeleted, false)
}

func (h *AdminHandler) renderMessagesError(w http.ResponseWriter, r *http.Request, msg string) {
	renderAdmin(w, r, http.StatusBadGateway, views.TabMessages, "Messages", views.MessagePanel(views.MessagePanelData{
		CSRF:     csrfField(r),
		Query:    defaultMessageQuery(),
		Messages: []domain.Message{},
		Error:    msg,
	}))
}
