// Package identity owns user accounts: signup, login, email verification,
// and profile management.
package identity

import (
	"time"

	id "volunity/pkg/domain"
)

// User is a registered account. PasswordHash never leaves the identity
// package; responses use Summary.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Phone        string
	DateOfBirth  *time.Time

	EmailVerified       bool
	VerificationToken   string
	VerificationExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the caller-facing projection of a user.
type Summary struct {
	ID          id.UserID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Summarize projects a user into its response form.
func Summarize(u *User) Summary {
	return Summary{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Phone:       u.Phone,
		DateOfBirth: u.DateOfBirth,
		CreatedAt:   u.CreatedAt,
	}
}
