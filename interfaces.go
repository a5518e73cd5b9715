package authware

import "context"

// SessionService owns the credential and identity lifecycle: it is the
// single source of truth for "who is logged in" and "what credential to
// present". Implementations: session/ (remote REST backend).
type SessionService interface {
	// Bootstrap restores a session from the persisted credential, if any.
	// It always moves the session out of the loading state exactly once.
	Bootstrap(ctx context.Context) error

	// Login authenticates with an identifier and password.
	Login(ctx context.Context, creds Credentials) (*User, error)

	// Register creates a new account and signs it in.
	Register(ctx context.Context, in RegisterInput) (*User, error)

	// GoogleLogin signs in with a Google ID token. The result reports
	// whether the account still needs local setup.
	GoogleLogin(ctx context.Context, idToken string) (*GoogleLoginResult, error)

	// AccountSetup completes a Google sign-in that needed setup.
	AccountSetup(ctx context.Context, in AccountSetupInput) (*User, error)

	// Logout clears the local session unconditionally and notifies the
	// server on a best-effort basis.
	Logout(ctx context.Context) error

	// UpdateProfile submits changed fields and replaces the identity with
	// the server's returned projection.
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error)

	// RequestPasswordReset asks the server to email a reset OTP.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword redeems an OTP for a new password.
	ResetPassword(ctx context.Context, in ResetPasswordInput) error

	// VerifyEmail confirms an address with an emailed token.
	VerifyEmail(ctx context.Context, email, token string) error

	// State returns the current session state.
	State() SessionState

	// CurrentUser returns the authenticated identity, or nil.
	CurrentUser() *User
}

// AdminService exposes the user-management console operations. All calls
// require an administrator session.
type AdminService interface {
	// ListUsers returns one page of users matching the options.
	ListUsers(ctx context.Context, opts ListOptions) (*UserPage, error)

	// RecentUsers returns the most recently created users.
	RecentUsers(ctx context.Context) ([]*User, error)

	// Stats summarizes the user base for the dashboard.
	Stats(ctx context.Context) (*UserStats, error)

	// DeleteUser removes an account by ID.
	DeleteUser(ctx context.Context, userID string) error
}

// CatalogService provides read-only product browsing.
type CatalogService interface {
	// ListProducts returns all products.
	ListProducts(ctx context.Context) ([]Product, error)

	// ListByCategory returns the products in one category.
	ListByCategory(ctx context.Context, category string) ([]Product, error)

	// Categories returns the known category names.
	Categories(ctx context.Context) ([]string, error)

	// GetProduct returns a single product by ID.
	GetProduct(ctx context.Context, id int) (*Product, error)
}

// TokenStore persists the bearer credential across process restarts.
// The session manager is the only writer. Load returns ErrNoToken when
// nothing is persisted.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
