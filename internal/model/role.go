package model

// Role is the role claim carried by a credential.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleTechLead Role = "TECH_LEAD"
)

// Roles lists every role the backend issues, in the order the
// user form offers them.
var Roles = []Role{RoleAdmin, RoleTechLead}

// ParseRole maps a claim value to a Role. The match is exact; callers
// reading user input trim it first.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTechLead:
		return RoleTechLead, true
	default:
		return "", false
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Label is the human form used in toasts and the sidebar header.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleTechLead:
		return "Tech Lead"
	default:
		return string(r)
	}
}
