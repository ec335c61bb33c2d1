package users

import (
	"slices"
	"time"
)

// RoleType is the account role assigned by the backend.
type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

// User is the profile returned by the backend for the signed in account.
// Only Sub is guaranteed; every other field may be absent.
type User struct {
	Sub       string     `json:"sub"`
	Role      RoleType   `json:"role,omitempty"`
	Type      string     `json:"type,omitempty"`
	Name      *string    `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DisplayName returns the name when set, otherwise the email, otherwise the subject.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasAnyRole reports whether the user's role is one of roles. An empty list admits everyone,
// a user without a role is admitted by nothing else.
func (u *User) HasAnyRole(roles ...RoleType) bool {
	if len(roles) == 0 {
		return true
	}
	if u == nil || u.Role == "" {
		return false
	}
	return slices.Contains(roles, u.Role)
}
