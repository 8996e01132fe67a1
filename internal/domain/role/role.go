package role

import "strings"

type Role string

const (
	NotAccess    Role = "NOT_ACCESS"
	LoginNotAuth Role = "LOGIN_NOT_AUTH"
	AuthLogin    Role = "AUTH_LOGIN"
	AuthPremium  Role = "AUTH_PREMIUM"
	BlockedLogin Role = "BLOCKED_LOGIN"
	Admin        Role = "ADMIN"
)

// All lists every role, least privileged first. Blocked is kept last since it
// sits outside the privilege order.
var All = []Role{NotAccess, LoginNotAuth, AuthLogin, AuthPremium, Admin, BlockedLogin}

// Parse is case-insensitive. Anything unknown falls back to NotAccess.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return NotAccess, false
}

func (r Role) Valid() bool {
	switch r {
	case NotAccess, LoginNotAuth, AuthLogin, AuthPremium, BlockedLogin, Admin:
		return true
	default:
		return false
	}
}

// Rank orders roles by privilege. BlockedLogin ranks below everything.
func (r Role) Rank() int {
	switch r {
	case NotAccess:
		return 0
	case LoginNotAuth:
		return 1
	case AuthLogin:
		return 2
	case AuthPremium:
		return 3
	case Admin:
		return 4
	default:
		return -1
	}
}

// AtLeast reports whether r is as privileged as other. A blocked role is never
// at least anything.
func (r Role) AtLeast(other Role) bool {
	if r == BlockedLogin {
		return false
	}
	return r.Rank() >= other.Rank()
}

func (r Role) IsBlocked() bool {
	return r == BlockedLogin
}

func (r Role) String() string {
	return string(r)
}
