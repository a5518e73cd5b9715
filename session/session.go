// Package session owns the credential and identity lifecycle.
//
// The Manager is the single source of truth for "who is logged in" and
// "what credential to present". It persists the credential through an
// authware.TokenStore, shares it with the HTTP transport through a
// transport.TokenHolder, and moves through the states
// uninitialized → loading → {authenticated | unauthenticated}.
package session

import (
	"context"

	authware "github.com/authware/authware-go"
)

// AuthResult is a successful response from an authentication endpoint.
type AuthResult struct {
	AccessToken string
	User        *authware.User
}

// GoogleAuthResult is a successful response from the Google sign-in
// endpoint. StatusCode is the server's discriminant: 204 means fully
// authenticated, 201 means the account still needs local setup and
// AccessToken is empty.
type GoogleAuthResult struct {
	AuthResult
	StatusCode int
}

// StatusNeedsSetup is the GoogleAuthResult discriminant for accounts
// that must complete the account-setup flow before a session exists.
const StatusNeedsSetup = 201

// Backend defines the contract for pluggable session backends (REST,
// fake, etc.).
type Backend interface {
	// Login authenticates with an identifier and password.
	Login(ctx context.Context, creds authware.Credentials) (*AuthResult, error)

	// Register creates an account and signs it in.
	Register(ctx context.Context, in authware.RegisterInput) (*AuthResult, error)

	// GoogleLogin signs in with a Google ID token.
	GoogleLogin(ctx context.Context, idToken string) (*GoogleAuthResult, error)

	// AccountSetup completes a Google sign-in that needed setup.
	AccountSetup(ctx context.Context, in authware.AccountSetupInput) (*AuthResult, error)

	// Profile returns the identity bound to the presented credential.
	Profile(ctx context.Context) (*authware.User, error)

	// UpdateProfile submits changed fields as a multipart request and
	// returns the server's new identity projection.
	UpdateProfile(ctx context.Context, update authware.ProfileUpdate) (*authware.User, error)

	// ForgotPassword asks the server to email a reset OTP.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword redeems an OTP for a new password.
	ResetPassword(ctx context.Context, in authware.ResetPasswordInput) error

	// VerifyEmail confirms an address with an emailed token.
	VerifyEmail(ctx context.Context, email, token string) error

	// Logout notifies the server that the session ended.
	Logout(ctx context.Context) error

	// RefreshToken exchanges the failing credential for a new one.
	// Implementations must not route this call through the
	// refresh-and-replay transport.
	RefreshToken(ctx context.Context) (string, error)
}
