package domain

// ConsoleAccess says which parts of the console an identity may use.
type ConsoleAccess struct {
	CanViewAdmin     bool   `json:"can_view_admin"`
	CanViewAnalytics bool   `json:"can_view_analytics"`
	CanManageUsers   bool   `json:"can_manage_users"`
	CanManageRoles   bool   `json:"can_manage_roles"`
	CanModerate      bool   `json:"can_moderate"`
	Reason           string `json:"reason,omitempty"`
}

// CalculateConsoleAccess decides console access for id. Only active admins
// get the admin tabs; the remote API still enforces permissions on every call.
func CalculateConsoleAccess(id *Identity) ConsoleAccess {
	if id == nil {
		return ConsoleAccess{Reason: "auth_required"}
	}
	if !id.Active {
		return ConsoleAccess{Reason: "account_inactive"}
	}
	if id.Role != RoleAdmin {
		return ConsoleAccess{Reason: "admin_required"}
	}
	return ConsoleAccess{
		CanViewAdmin:     true,
		CanViewAnalytics: true,
		CanManageUsers:   true,
		CanManageRoles:   true,
		CanModerate:      true,
	}
}
