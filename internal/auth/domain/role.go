package domain

// Role is assigned at registration and immutable thereafter; there is no
// role-change endpoint, only direct administrative data edits.
type Role string

const (
	RoleOrganizer Role = "Organizer"
	RoleAdmin     Role = "Admin"
	RoleUser      Role = "User"
)

// ParseRole validates a requested role string. The empty string maps to the
// registration default.
func ParseRole(s string, fallback Role) (Role, bool) {
	switch Role(s) {
	case "":
		return fallback, true
	case RoleOrganizer, RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }
