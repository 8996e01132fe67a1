package role

type Capability string

const (
	CanView          Capability = "canView"
	CanCreateContent Capability = "canCreateContent"
	CanModerate      Capability = "canModerate"
	CanAccessAdmin   Capability = "canAccessAdmin"
)

type Capabilities struct {
	CanView          bool `json:"canView"`
	CanCreateContent bool `json:"canCreateContent"`
	CanModerate      bool `json:"canModerate"`
	CanAccessAdmin   bool `json:"canAccessAdmin"`
}

// For maps a role to its capability set. It is the only place role checks are
// derived; call sites consult it instead of comparing roles directly.
func For(r Role) Capabilities {
	switch r {
	case Admin:
		return Capabilities{CanView: true, CanCreateContent: true, CanModerate: true, CanAccessAdmin: true}
	case AuthLogin, AuthPremium:
		return Capabilities{CanView: true, CanCreateContent: true}
	case NotAccess, LoginNotAuth:
		return Capabilities{CanView: true}
	default:
		// BlockedLogin and anything unrecognised
		return Capabilities{}
	}
}

// Subject is anything carrying a stored role and an active flag.
type Subject interface {
	StoredRole() Role
	IsActive() bool
}

// ForSubject returns the empty set for blocked or deactivated accounts,
// whatever their stored role says.
func ForSubject(s Subject) Capabilities {
	if s == nil || !s.IsActive() || s.StoredRole().IsBlocked() {
		return Capabilities{}
	}
	return For(s.StoredRole())
}

func (c Capabilities) Has(want Capability) bool {
	switch want {
	case CanView:
		return c.CanView
	case CanCreateContent:
		return c.CanCreateContent
	case CanModerate:
		return c.CanModerate
	case CanAccessAdmin:
		return c.CanAccessAdmin
	default:
		return false
	}
}

func (c Capabilities) Empty() bool {
	return c == Capabilities{}
}
