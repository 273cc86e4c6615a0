package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleClient UserRole = "client"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleClient
}

// User is keyed by the identity provider uid.
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	Role        UserRole  `json:"role" bson:"role"`
	DisplayName string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	Phone       string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	LastLogin   time.Time `json:"last_login" bson:"last_login"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// NormalizeEmail is the form emails are stored and matched in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SessionInfo is returned when a signed-in user bootstraps a session.
type SessionInfo struct {
	User                *User `json:"user"`
	Created             bool  `json:"created"`
	ReconciledProjects  int64 `json:"reconciled_projects"`
	ReconciledRequests  int64 `json:"reconciled_requests"`
	ReconciledReminders int64 `json:"reconciled_reminders"`
}

type UpdateRoleRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=admin client"`
}
