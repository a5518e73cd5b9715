// Package fake provides an in-memory backend implementing the session
// and admin contracts for testing.
//
// Use fake.NewBackend() in unit tests to avoid network calls and
// external dependencies. Accounts are seeded through Options; issued
// credentials are simple counters ("token-1", "token-2", ...).
package fake

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/admin"
	"github.com/authware/authware-go/session"
	"github.com/authware/authware-go/transport"
)

// Backend is an in-memory session.Backend + admin.Backend.
type Backend struct {
	mu sync.Mutex

	users         map[string]*authware.User // userID → user
	passwords     map[string]string         // identifier → password
	identifierIDs map[string]string         // identifier → userID
	googleUsers   map[string]string         // idToken → userID (fully registered)
	googlePending map[string]*authware.User // idToken → partial identity needing setup
	validTokens   map[string]string         // token → userID
	expiredTokens map[string]string         // token → userID

	source transport.TokenSource

	failRefresh bool
	failLogout  bool

	nextToken int
	nextID    int
	calls     map[string]int
}

// compile-time checks
var (
	_ session.Backend     = (*Backend)(nil)
	_ admin.Backend       = (*Backend)(nil)
	_ transport.Refresher = (*Backend)(nil)
)

// Option seeds the fake backend.
type Option func(*Backend)

// WithUser adds an account with a password.
func WithUser(u *authware.User, password string) Option {
	return func(b *Backend) {
		b.users[u.ID] = u
		if u.Email != "" {
			b.passwords[u.Email] = password
			b.identifierIDs[u.Email] = u.ID
		}
		if u.Username != "" {
			b.passwords[u.Username] = password
			b.identifierIDs[u.Username] = u.ID
		}
	}
}

// WithGoogleUser maps an ID token to a fully registered account.
func WithGoogleUser(idToken string, u *authware.User) Option {
	return func(b *Backend) {
		b.users[u.ID] = u
		b.googleUsers[idToken] = u.ID
	}
}

// WithGooglePending maps an ID token to a partial identity that still
// needs account setup.
func WithGooglePending(idToken string, partial *authware.User) Option {
	return func(b *Backend) {
		b.googlePending[idToken] = partial
	}
}

// WithRefreshFailure makes every refresh attempt fail.
func WithRefreshFailure() Option {
	return func(b *Backend) { b.failRefresh = true }
}

// WithLogoutFailure makes the server logout notification fail.
func WithLogoutFailure() Option {
	return func(b *Backend) { b.failLogout = true }
}

// WithTokenSource lets the backend read the credential a caller
// presents, mirroring the Authorization header of the real backend.
func WithTokenSource(src transport.TokenSource) Option {
	return func(b *Backend) { b.source = src }
}

// NewBackend creates a fake backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		users:         make(map[string]*authware.User),
		passwords:     make(map[string]string),
		identifierIDs: make(map[string]string),
		googleUsers:   make(map[string]string),
		googlePending: make(map[string]*authware.User),
		validTokens:   make(map[string]string),
		expiredTokens: make(map[string]string),
		calls:         make(map[string]int),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Calls returns how many times the named operation ran.
func (b *Backend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

// SeedToken registers a valid credential for a user, as if issued by a
// previous process run.
func (b *Backend) SeedToken(token, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validTokens[token] = userID
}

// ExpireToken invalidates a credential while keeping it refreshable.
func (b *Backend) ExpireToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uid, ok := b.validTokens[token]; ok {
		delete(b.validTokens, token)
		b.expiredTokens[token] = uid
	}
}

func (b *Backend) issueToken(userID string) string {
	b.nextToken++
	token := fmt.Sprintf("token-%d", b.nextToken)
	b.validTokens[token] = userID
	return token
}

func (b *Backend) presentedToken() string {
	if b.source == nil {
		return ""
	}
	return b.source.Token()
}

func (b *Backend) currentUser() (*authware.User, error) {
	uid, ok := b.validTokens[b.presentedToken()]
	if !ok {
		return nil, &authware.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}
	}
	u, ok := b.users[uid]
	if !ok {
		return nil, &authware.APIError{StatusCode: http.StatusNotFound, Message: "user not found"}
	}
	return u, nil
}

// Login implements session.Backend.
func (b *Backend) Login(ctx context.Context, creds authware.Credentials) (*session.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["login"]++

	password, ok := b.passwords[creds.Identifier]
	if !ok || password != creds.Password {
		return nil, &authware.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}
	}

	uid := b.identifierIDs[creds.Identifier]
	user := b.users[uid]
	user.LastLogin = time.Now()
	return &session.AuthResult{AccessToken: b.issueToken(uid), User: user}, nil
}

// Register implements session.Backend.
func (b *Backend) Register(ctx context.Context, in authware.RegisterInput) (*session.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["register"]++

	if _, exists := b.identifierIDs[in.Email]; exists {
		return nil, &authware.APIError{StatusCode: http.StatusConflict, Message: "Email already registered"}
	}

	b.nextID++
	user := &authware.User{
		ID:        fmt.Sprintf("user-%d", b.nextID),
		FullName:  in.FullName,
		Username:  in.Username,
		Email:     in.Email,
		Role:      in.Role,
		Active:    true,
		CreatedAt: time.Now(),
	}
	b.users[user.ID] = user
	b.passwords[in.Email] = in.Password
	b.identifierIDs[in.Email] = user.ID
	b.passwords[in.Username] = in.Password
	b.identifierIDs[in.Username] = user.ID

	return &session.AuthResult{AccessToken: b.issueToken(user.ID), User: user}, nil
}

// GoogleLogin implements session.Backend.
func (b *Backend) GoogleLogin(ctx context.Context, idToken string) (*session.GoogleAuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["google_login"]++

	if partial, ok := b.googlePending[idToken]; ok {
		return &session.GoogleAuthResult{
			AuthResult: session.AuthResult{User: partial},
			StatusCode: session.StatusNeedsSetup,
		}, nil
	}
	if uid, ok := b.googleUsers[idToken]; ok {
		return &session.GoogleAuthResult{
			AuthResult: session.AuthResult{AccessToken: b.issueToken(uid), User: b.users[uid]},
			StatusCode: http.StatusNoContent,
		}, nil
	}
	return nil, &authware.APIError{StatusCode: http.StatusUnauthorized, Message: "Google login failed"}
}

// AccountSetup implements session.Backend.
func (b *Backend) AccountSetup(ctx context.Context, in authware.AccountSetupInput) (*session.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["account_setup"]++

	b.nextID++
	user := &authware.User{
		ID:            fmt.Sprintf("user-%d", b.nextID),
		Username:      in.Username,
		Email:         in.Email,
		Role:          in.Role,
		EmailVerified: true,
		Active:        true,
		CreatedAt:     time.Now(),
	}
	b.users[user.ID] = user
	b.passwords[in.Email] = in.Password
	b.identifierIDs[in.Email] = user.ID

	// Consume any pending Google mapping for this address.
	for token, partial := range b.googlePending {
		if partial.Email == in.Email {
			delete(b.googlePending, token)
			b.googleUsers[token] = user.ID
		}
	}

	return &session.AuthResult{AccessToken: b.issueToken(user.ID), User: user}, nil
}

// Profile implements session.Backend.
func (b *Backend) Profile(ctx context.Context) (*authware.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["profile"]++
	return b.currentUser()
}

// UpdateProfile implements session.Backend.
func (b *Backend) UpdateProfile(ctx context.Context, update authware.ProfileUpdate) (*authware.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["update_profile"]++

	user, err := b.currentUser()
	if err != nil {
		return nil, err
	}
	if update.FullName != "" {
		user.FullName = update.FullName
	}
	if update.Username != "" {
		user.Username = update.Username
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if len(update.Avatar) > 0 {
		user.Avatar = "/uploads/" + update.AvatarName
	}
	return user, nil
}

// ForgotPassword implements session.Backend.
func (b *Backend) ForgotPassword(ctx context.Context, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["forgot_password"]++

	if _, ok := b.identifierIDs[email]; !ok {
		return &authware.APIError{StatusCode: http.StatusNotFound, Message: "Email not found"}
	}
	return nil
}

// ResetPassword implements session.Backend.
func (b *Backend) ResetPassword(ctx context.Context, in authware.ResetPasswordInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["reset_password"]++

	if in.OTP != "123456" {
		return &authware.APIError{StatusCode: http.StatusBadRequest, Message: "Invalid OTP"}
	}
	if _, ok := b.identifierIDs[in.Email]; !ok {
		return &authware.APIError{StatusCode: http.StatusNotFound, Message: "Email not found"}
	}
	b.passwords[in.Email] = in.NewPassword
	return nil
}

// VerifyEmail implements session.Backend.
func (b *Backend) VerifyEmail(ctx context.Context, email, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["verify_email"]++

	uid, ok := b.identifierIDs[email]
	if !ok {
		return &authware.APIError{StatusCode: http.StatusNotFound, Message: "Email not found"}
	}
	b.users[uid].EmailVerified = true
	return nil
}

// Logout implements session.Backend.
func (b *Backend) Logout(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["logout"]++

	if b.failLogout {
		return &authware.APIError{StatusCode: http.StatusInternalServerError, Message: "logout failed"}
	}
	return nil
}

// RefreshToken implements session.Backend.
func (b *Backend) RefreshToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["refresh"]++

	if b.failRefresh {
		return "", &authware.APIError{StatusCode: http.StatusUnauthorized, Message: "refresh token expired"}
	}

	presented := b.presentedToken()
	uid, ok := b.validTokens[presented]
	if !ok {
		uid, ok = b.expiredTokens[presented]
	}
	if !ok {
		return "", &authware.APIError{StatusCode: http.StatusUnauthorized, Message: "unknown session"}
	}
	return b.issueToken(uid), nil
}

// Refresh implements transport.Refresher.
func (b *Backend) Refresh(ctx context.Context) (string, error) {
	return b.RefreshToken(ctx)
}

// ListUsers implements admin.Backend.
func (b *Backend) ListUsers(ctx context.Context, opts authware.ListOptions) (*authware.UserPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["list_users"]++

	matched := make([]*authware.User, 0, len(b.users))
	for _, u := range b.users {
		if opts.Role != "" && u.Role != opts.Role {
			continue
		}
		if opts.Status == "active" && !u.Active {
			continue
		}
		if opts.Status == "inactive" && u.Active {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(u.FullName), needle) &&
				!strings.Contains(strings.ToLower(u.Username), needle) &&
				!strings.Contains(strings.ToLower(u.Email), needle) {
				continue
			}
		}
		matched = append(matched, u)
	}

	asc := opts.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch opts.SortBy {
		case "username":
			less = matched[i].Username < matched[j].Username
		case "email":
			less = matched[i].Email < matched[j].Email
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	total := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = total
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	totalPages := 1
	if limit > 0 && total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &authware.UserPage{
		Users:       matched[start:end],
		TotalUsers:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

// DeleteUser implements admin.Backend.
func (b *Backend) DeleteUser(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["delete_user"]++

	user, ok := b.users[userID]
	if !ok {
		return &authware.APIError{StatusCode: http.StatusNotFound, Message: "User not found"}
	}
	delete(b.users, userID)
	delete(b.identifierIDs, user.Email)
	delete(b.identifierIDs, user.Username)
	delete(b.passwords, user.Email)
	delete(b.passwords, user.Username)
	return nil
}
