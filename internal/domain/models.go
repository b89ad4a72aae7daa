package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ID is an API record identifier. The API emits both numeric and string ids,
// so ID accepts either and always re-encodes as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Identity is the signed-in operator as returned by the auth and profile
// endpoints.
type Identity struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Initials is used by the header when no profile photo is set.
func (i *Identity) Initials() string {
	if i == nil {
		return ""
	}
	out := make([]rune, 0, 2)
	word := true
	for _, r := range i.Name {
		if r == ' ' {
			word = true
			continue
		}
		if word && len(out) < 2 {
			out = append(out, r)
		}
		word = false
	}
	if len(out) == 0 && i.Email != "" {
		out = append(out, []rune(i.Email)[0])
	}
	return string(out)
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

var AssignableRoles = []string{RoleUser, RoleModerator, RoleAdmin}

type User struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	ProfilePhoto string     `json:"profilePhoto,omitempty"`
	LastActive   *time.Time `json:"lastActive,omitempty"`
}

// UserInput is the create/update body. Password is only sent on create.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
	Password string `json:"password,omitempty"`
}

type UserQuery struct {
	Page   int
	Limit  int
	Search string
	Role   string
	Status string
}

type UserPage struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}

type Role struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"userCount,omitempty"`
}

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

type RolePage struct {
	Roles []Role `json:"roles"`
}

type Permission struct {
	ID          string
	Name        string
	Description string
}

// Permissions is the catalog the role editor offers.
var Permissions = []Permission{
	{ID: "read_messages", Name: "Read Messages", Description: "Can view all messages"},
	{ID: "send_messages", Name: "Send Messages", Description: "Can send messages"},
	{ID: "delete_messages", Name: "Delete Messages", Description: "Can delete any message"},
	{ID: "manage_users", Name: "Manage Users", Description: "Can add, edit, delete users"},
	{ID: "manage_roles", Name: "Manage Roles", Description: "Can manage role permissions"},
	{ID: "view_analytics", Name: "View Analytics", Description: "Can access analytics dashboard"},
	{ID: "system_admin", Name: "System Admin", Description: "Full system access"},
}

func IsPermission(id string) bool {
	for _, p := range Permissions {
		if p.ID == id {
			return true
		}
	}
	return false
}

type Participant struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Type   string `json:"type,omitempty"`
}

type Message struct {
	ID        ID          `json:"id"`
	Content   string      `json:"content"`
	Sender    Participant `json:"sender"`
	Recipient Participant `json:"recipient"`
	Timestamp time.Time   `json:"timestamp"`
	Status    string      `json:"status"`
	Flagged   bool        `json:"flagged"`
}

const (
	MessageFilterAll       = "all"
	MessageFilterFlagged   = "flagged"
	MessageFilterDirect    = "direct"
	MessageFilterGroup     = "group"
	MessageFilterBroadcast = "broadcast"
)

var MessageFilters = []string{MessageFilterAll, MessageFilterDirect, MessageFilterGroup, MessageFilterBroadcast, MessageFilterFlagged}

const MessagePageSize = 20

type MessageQuery struct {
	Page   int
	Limit  int
	Filter string
	Search string
}

type MessagePage struct {
	Messages   []Message `json:"messages"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

type FlagRequest struct {
	Flagged bool `json:"flagged"`
}

type BulkDeleteRequest struct {
	MessageIDs []string `json:"messageIds"`
}

type Overview struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveUsers   int `json:"activeUsers"`
	OfflineUsers  int `json:"offlineUsers"`
	TotalMessages int `json:"totalMessages"`
	TotalRoles    int `json:"totalRoles"`
}

type Stats struct {
	Overview    Overview       `json:"overview"`
	UsersByRole map[string]int `json:"usersByRole"`
}

const (
	Range24h = "24h"
	Range7d  = "7d"
	Range30d = "30d"
	Range90d = "90d"
)

type TimeRange struct {
	Value string
	Label string
}

var TimeRanges = []TimeRange{
	{Value: Range24h, Label: "Last 24 Hours"},
	{Value: Range7d, Label: "Last 7 Days"},
	{Value: Range30d, Label: "Last 30 Days"},
	{Value: Range90d, Label: "Last 3 Months"},
}

// NormalizeRange maps unknown values to the 7 day default.
func NormalizeRange(v string) string {
	for _, r := range TimeRanges {
		if r.Value == v {
			return v
		}
	}
	return Range7d
}

type DataPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type ChannelStat struct {
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

type SystemHealth struct {
	Uptime       string `json:"uptime"`
	ResponseTime string `json:"responseTime"`
	ErrorRate    string `json:"errorRate"`
}

type Analytics struct {
	MessageStats    []DataPoint   `json:"messageStats"`
	UserActivity    []DataPoint   `json:"userActivity"`
	PopularChannels []ChannelStat `json:"popularChannels"`
	SystemHealth    SystemHealth  `json:"systemHealth"`
}

// Profile is the editable superset of Identity served by /profile.
type Profile struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	Location     string `json:"location,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

func (p Profile) Identity() Identity {
	return Identity{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		Active:       p.Active,
		ProfilePhoto: p.ProfilePhoto,
		Bio:          p.Bio,
		Phone:        p.Phone,
	}
}

type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Location   string `json:"location,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// APIError is the remote API's error body.
type APIError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Text prefers message, falling back to error.
func (e APIError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func PageOrDefault(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func ParsePage(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return PageOrDefault(n)
}
