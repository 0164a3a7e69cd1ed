package domain

// Permissions checked by the staff endpoints.
const (
	PermissionStaffRead   = "staff:read"
	PermissionStaffWrite  = "staff:write"
	PermissionStaffDelete = "staff:delete"

	RoleAdmin = "ROLE_ADMIN"
)

// Principal identifies the caller of a request.
type Principal struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
}

// Anonymous is the principal used when no credentials were presented.
func Anonymous() *Principal {
	return &Principal{Roles: []string{}}
}

// HasRole reports whether the principal holds role, admins hold every role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// Authenticated reports whether the principal carries an identity.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != ""
}
