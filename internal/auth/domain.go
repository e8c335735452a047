package auth

import (
	"time"

	"github.com/learnova/learnova/internal/access"
)

// User represents an account that can sign in to a school portal or, when
// SchoolID is empty, to the platform console.
type User struct {
	ID           string
	SchoolID     string
	Email        string
	PasswordHash string
	Role         access.Role
	Permissions  []string
	IsSystem     bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Access returns the permission snapshot recorded in the session at login.
func (u *User) Access() access.User {
	return access.User{Role: string(u.Role), Permissions: u.Permissions, IsSystem: u.IsSystem}
}
