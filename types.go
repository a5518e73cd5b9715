package authware

import (
	"fmt"
	"time"
)

// Role is the closed set of roles the backend assigns to accounts.
// Authorization decisions switch exhaustively on this type rather than
// comparing raw strings.
type Role string

const (
	// RoleUser is a regular account.
	RoleUser Role = "user"

	// RoleAdmin grants access to the user-management console.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// SessionState is the observable lifecycle state of a session.
type SessionState int

const (
	// StateUninitialized means Bootstrap has not started yet.
	StateUninitialized SessionState = iota

	// StateLoading means Bootstrap is in flight.
	StateLoading

	// StateUnauthenticated means no valid credential is held.
	StateUnauthenticated

	// StateAuthenticated means a credential and identity are held.
	StateAuthenticated
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// User is the authenticated identity projection returned by the backend.
// It is replaced wholesale on every successful auth operation and is
// read-only to consumers.
type User struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullname"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"isEmailVerified"`
	Active        bool      `json:"isActive"`
	Avatar        string    `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLogin     time.Time `json:"lastLogin,omitempty"`
}

// Credentials identify an account for password login. Identifier is an
// email address or a username; the backend accepts either.
type Credentials struct {
	Identifier string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// RegisterInput holds the fields for account registration.
type RegisterInput struct {
	FullName string `json:"fullname" validate:"required,min=2"`
	Username string `json:"username" validate:"required,min=3,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=user admin"`
}

// AccountSetupInput completes a Google sign-in that needs a local account.
type AccountSetupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,alphanum"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=user admin"`
}

// GoogleLoginResult is the outcome of a Google sign-in. When NeedsSetup is
// true the backend created no session: User carries the partial identity
// to prefill the account-setup flow and no credential was stored.
type GoogleLoginResult struct {
	User       *User
	NeedsSetup bool
}

// ResetPasswordInput carries an OTP-based password reset.
type ResetPasswordInput struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ProfileUpdate holds changed profile fields plus an optional avatar
// image, submitted as a multipart request. Empty fields are omitted.
type ProfileUpdate struct {
	FullName string
	Username string
	Email    string

	// AvatarName and Avatar carry the optional image upload.
	AvatarName string
	Avatar     []byte
}

// Fields returns the non-empty textual fields as form values.
func (p ProfileUpdate) Fields() map[string]string {
	m := make(map[string]string, 3)
	if p.FullName != "" {
		m["fullname"] = p.FullName
	}
	if p.Username != "" {
		m["username"] = p.Username
	}
	if p.Email != "" {
		m["email"] = p.Email
	}
	return m
}

// ListOptions holds the query surface of the admin user listing.
type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	Role      Role   // zero value means all roles
	Status    string // "active", "inactive", or empty for all
	SortBy    string // field name, e.g. "createdAt"
	SortOrder string // "asc" or "desc"
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users       []*User `json:"users"`
	TotalUsers  int     `json:"totalUsers"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

// UserStats summarizes the user base for the admin dashboard. It is
// derived client-side from the user listing.
type UserStats struct {
	TotalUsers        int
	NewUsersThisMonth int
	VerifiedUsers     int
	AdminUsers        int
	ActiveUsers       int
}

// Product is a catalog item from the public demo API.
type Product struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Price       float64       `json:"price"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Image       string        `json:"image"`
	Rating      ProductRating `json:"rating"`
}

// ProductRating is the aggregate rating of a Product.
type ProductRating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}
