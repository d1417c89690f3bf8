package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleDonor Role = "donor"
	RoleNGO   Role = "ngo"
	RoleAdmin Role = "admin"
)

// new accounts get this role when the caller does not pick one
const DefaultRole = RoleNGO

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         *string   `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public is the shape handed back to clients after register/login.
type Public struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Role  Role    `json:"role"`
}

func (u User) Public() Public {
	return Public{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Donor is what the public donors directory shows. No email, no contact data.
type Donor struct {
	ID        int64     `json:"id"`
	Name      *string   `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Donor() Donor {
	return Donor{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,notblank,max=254"`
	Password string  `json:"password" binding:"required,max=72"`
	Name     *string `json:"name" binding:"omitempty,max=120"`
	Role     string  `json:"role" binding:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

// NewUser is the input a repository needs to insert a user.
type NewUser struct {
	Email        string
	PasswordHash string
	Name         *string
	Role         Role
}

// NormalizeEmail returns the comparison key for an email. Stored emails keep
// the caller's casing; lookups and uniqueness go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName maps blank names to nil so they serialize as null.
func NormalizeName(name *string) *string {
	if name == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

// ResolveRole applies the default role to an empty value.
func ResolveRole(raw string) Role {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRole
	}

	return Role(raw)
}
