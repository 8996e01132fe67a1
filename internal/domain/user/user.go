package user

import (
	"errors"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/role"
)

type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
	ProviderNaver  Provider = "naver"
	// ProviderMock marks identities that only exist behind the mock-auth hook.
	ProviderMock Provider = "mock"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderKakao, ProviderNaver:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrAlreadyExists = errors.New("user already exists")
)

// Users are never hard-deleted; Active=false deactivates them.
type User struct {
	ID             string    `json:"id"`
	SocialProvider Provider  `json:"socialProvider"`
	SocialID       string    `json:"-"`
	Nickname       string    `json:"nickname"`
	Email          string    `json:"email,omitempty"`
	Role           role.Role `json:"role"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) StoredRole() role.Role { return u.Role }
func (u *User) IsActive() bool { return u.Active }

func (u *User) Capabilities() role.Capabilities {
	return role.ForSubject(u)
}

// SocialProfile is what an identity provider tells us about a login.
type SocialProfile struct {
	Provider Provider
	SocialID string
	Nickname string
	Email    string
}

type ListFilter struct {
	Role  *role.Role
	Limit int
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=40"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}
