package views

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/workcity/chat-admin/internal/domain"
)

const (
	TabAnalytics = "analytics"
	TabUsers     = "users"
	TabRoles     = "roles"
	TabMessages  = "messages"
)

type Tab struct {
	ID    string
	Label string
	Href  string
}

var Tabs = []Tab{
	{ID: TabAnalytics, Label: "Analytics", Href: "/admin/analytics"},
	{ID: TabUsers, Label: "User Management", Href: "/admin/users"},
	{ID: TabRoles, Label: "Role Management", Href: "/admin/roles"},
	{ID: TabMessages, Label: "Messages", Href: "/admin/messages"},
}

type AdminTabsData struct {
	Active string
	Tabs   []Tab
	Body   template.HTML
}

// AdminTabs renders the console tab bar with the active panel below it.
func AdminTabs(active string, panel templ.Component) templ.Component {
	return withBody(panel, func(inner template.HTML) templ.Component {
		return render("admin_tabs", AdminTabsData{Active: active, Tabs: Tabs, Body: inner})
	})
}

type AnalyticsData struct {
	Range     string
	Ranges    []domain.TimeRange
	Stats     *domain.Stats
	Analytics *domain.Analytics
	Error     string
}

func Analytics(data AnalyticsData) templ.Component {
	if data.Ranges == nil {
		data.Ranges = domain.TimeRanges
	}
	return render("analytics", data)
}

type Pager struct {
	Page       int
	TotalPages int
	Total      int
	// Href is the base URL the page number is appended to.
	Href string
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.TotalPages }

type UserPanelData struct {
	CSRF   template.HTML
	Users  []domain.User
	Query  domain.UserQuery
	Roles  []string
	Pager  Pager
	Error  string
	Notice string
}

func UserPanel(data UserPanelData) templ.Component {
	return render("user_panel", withRoles(data))
}

// UserRows is the fragment swapped in by search and pagination.
func UserRows(data UserPanelData) templ.Component {
	return render("user_rows", withRoles(data))
}

func withRoles(data UserPanelData) UserPanelData {
	if data.Roles == nil {
		data.Roles = domain.AssignableRoles
	}
	return data
}

type UserFormData struct {
	CSRF        template.HTML
	ID          string
	Input       domain.UserInput
	Roles       []string
	FieldErrors map[string]string
	Error       string
}

func (d UserFormData) IsNew() bool { return d.ID == "" }

func UserForm(data UserFormData) templ.Component {
	if data.Roles == nil {
		data.Roles = domain.AssignableRoles
	}
	return render("user_form", data)
}

type RolePanelData struct {
	Roles  []domain.Role
	Error  string
	Notice string
}

func RolePanel(data RolePanelData) templ.Component {
	return render("role_panel", data)
}

type RoleFormData struct {
	CSRF        template.HTML
	ID          string
	Input       domain.RoleInput
	Permissions []domain.Permission
	FieldErrors map[string]string
	Error       string
}

func (d RoleFormData) IsNew() bool { return d.ID == "" }

func RoleForm(data RoleFormData) templ.Component {
	if data.Permissions == nil {
		data.Permissions = domain.Permissions
	}
	return render("role_form", data)
}

type MessagePanelData struct {
	CSRF     template.HTML
	Messages []domain.Message
	Query    domain.MessageQuery
	Filters  []string
	Pager    Pager
	Error    string
	Notice   string
}

func MessagePanel(data MessagePanelData) templ.Component {
	return render("message_panel", withFilters(data))
}

func MessageRows(data MessagePanelData) templ.Component {
	return render("message_rows", withFilters(data))
}

func withFilters(data MessagePanelData) MessagePanelData {
	if data.Filters == nil {
		data.Filters = domain.MessageFilters
	}
	return data
}
