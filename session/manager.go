package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/audit"
	"github.com/authware/authware-go/metrics"
	"github.com/authware/authware-go/transport"
	"github.com/authware/authware-go/validation"
)

// Manager implements authware.SessionService. It is safe for concurrent
// use; the credential and identity are mutated only by Manager methods
// and by the sanctioned refresh path.
type Manager struct {
	api     Backend
	tokens  authware.TokenStore
	creds   *transport.TokenHolder
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Logger

	mu    sync.RWMutex
	state authware.SessionState
	user  *authware.User
}

// compile-time checks
var (
	_ authware.SessionService = (*Manager)(nil)
	_ transport.Refresher     = (*Manager)(nil)
)

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics enables session metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// WithAudit enables audit events for session operations.
func WithAudit(a *audit.Logger) Option {
	return func(m *Manager) { m.audit = a }
}

// WithTokenHolder shares an existing credential cell with the Manager.
// Use this when the HTTP transport was built before the Manager.
func WithTokenHolder(h *transport.TokenHolder) Option {
	return func(m *Manager) { m.creds = h }
}

// NewManager creates a session manager over the given backend and
// credential store.
func NewManager(api Backend, tokens authware.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		tokens: tokens,
		logger: slog.Default(),
		state:  authware.StateUninitialized,
	}
	for _, o := range opts {
		o(m)
	}
	if m.creds == nil {
		m.creds = transport.NewTokenHolder()
	}
	return m
}

// TokenHolder returns the credential cell shared with the HTTP transport.
func (m *Manager) TokenHolder() *transport.TokenHolder { return m.creds }

// Token returns the current credential, or "" when none is held.
func (m *Manager) Token() string { return m.creds.Token() }

// State returns the current session state.
func (m *Manager) State() authware.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns a copy of the authenticated identity, or nil.
func (m *Manager) CurrentUser() *authware.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Bootstrap restores a session from the persisted credential. With no
// credential it settles unauthenticated without any network call; with a
// credential the profile endpoint decides. Any failure clears the
// persisted credential. The loading phase terminates exactly once.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	if m.state != authware.StateUninitialized {
		m.mu.Unlock()
		return fmt.Errorf("authware/session: bootstrap already ran (state %s)", m.state)
	}
	m.state = authware.StateLoading
	m.mu.Unlock()

	token, err := m.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, authware.ErrNoToken) {
			m.logger.Warn("credential load failed",
				slog.String("error", err.Error()))
		}
		m.settle(nil, "")
		return nil
	}

	m.creds.Set(token)
	user, err := m.api.Profile(ctx)
	if err != nil {
		m.logger.Warn("persisted credential rejected",
			slog.String("error", err.Error()))
		m.clearCredential(ctx)
		m.settle(nil, "")
		return nil
	}

	m.settle(user, token)
	m.logger.Debug("session restored", slog.String("user", user.Username))
	return nil
}

// Login authenticates with an identifier and password. On success the
// credential is persisted and the identity replaced.
func (m *Manager) Login(ctx context.Context, creds authware.Credentials) (*authware.User, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	res, err := m.api.Login(ctx, creds)
	if err != nil {
		m.recordFailure("login", audit.ActionLogin, creds.Identifier, err)
		return nil, err
	}

	m.establish(ctx, res)
	m.recordSuccess("login", audit.ActionLogin, res.User)
	return res.User, nil
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, in authware.RegisterInput) (*authware.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	res, err := m.api.Register(ctx, in)
	if err != nil {
		m.recordFailure("register", audit.ActionRegister, in.Email, err)
		return nil, err
	}

	m.establish(ctx, res)
	m.recordSuccess("register", audit.ActionRegister, res.User)
	return res.User, nil
}

// GoogleLogin signs in with a Google ID token. When the server answers
// with the needs-setup discriminant, no credential is stored and the
// partial identity is returned for the account-setup flow.
func (m *Manager) GoogleLogin(ctx context.Context, idToken string) (*authware.GoogleLoginResult, error) {
	if err := validation.Required("IDToken", idToken); err != nil {
		return nil, err
	}

	res, err := m.api.GoogleLogin(ctx, idToken)
	if err != nil {
		m.recordFailure("google_login", audit.ActionGoogleLogin, "", err)
		return nil, err
	}

	if res.StatusCode == StatusNeedsSetup {
		m.logger.Debug("google account needs setup")
		return &authware.GoogleLoginResult{User: res.User, NeedsSetup: true}, nil
	}

	m.establish(ctx, &res.AuthResult)
	m.recordSuccess("google_login", audit.ActionGoogleLogin, res.User)
	return &authware.GoogleLoginResult{User: res.User}, nil
}

// AccountSetup completes a Google sign-in that needed local setup.
func (m *Manager) AccountSetup(ctx context.Context, in authware.AccountSetupInput) (*authware.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	res, err := m.api.AccountSetup(ctx, in)
	if err != nil {
		m.recordFailure("account_setup", audit.ActionAccountSetup, in.Email, err)
		return nil, err
	}

	m.establish(ctx, res)
	m.recordSuccess("account_setup", audit.ActionAccountSetup, res.User)
	return res.User, nil
}

// Logout clears the local session first, unconditionally, then notifies
// the server on a best-effort basis. A failed notification never blocks
// or reverts the local logout.
func (m *Manager) Logout(ctx context.Context) error {
	user := m.CurrentUser()

	m.clearSession(ctx)

	if err := m.api.Logout(ctx); err != nil {
		m.logger.Debug("server logout notification failed",
			slog.String("error", err.Error()))
	}

	if m.audit != nil {
		id := ""
		if user != nil {
			id = user.ID
		}
		m.audit.Success(audit.ActionLogout, id, "")
	}
	return nil
}

// UpdateProfile submits changed fields and replaces the identity with
// the server's returned projection.
func (m *Manager) UpdateProfile(ctx context.Context, update authware.ProfileUpdate) (*authware.User, error) {
	if m.State() != authware.StateAuthenticated {
		return nil, authware.ErrNotAuthenticated
	}

	user, err := m.api.UpdateProfile(ctx, update)
	if err != nil {
		if m.audit != nil {
			m.audit.Failure(audit.ActionProfileUpdate, "", err)
		}
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if m.audit != nil {
		m.audit.Success(audit.ActionProfileUpdate, user.ID, user.Email)
	}
	return user, nil
}

// RequestPasswordReset asks the server to email a reset OTP.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Email(email); err != nil {
		return err
	}
	if err := m.api.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return nil
}

// ResetPassword redeems an OTP for a new password.
func (m *Manager) ResetPassword(ctx context.Context, in authware.ResetPasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := m.api.ResetPassword(ctx, in); err != nil {
		if m.audit != nil {
			m.audit.Failure(audit.ActionPasswordReset, in.Email, err)
		}
		return err
	}
	if m.audit != nil {
		m.audit.Success(audit.ActionPasswordReset, "", in.Email)
	}
	return nil
}

// VerifyEmail confirms an address with an emailed token. On success the
// in-memory identity's verified flag is flipped when one is held.
func (m *Manager) VerifyEmail(ctx context.Context, email, token string) error {
	if err := validation.Email(email); err != nil {
		return err
	}
	if err := validation.Required("Token", token); err != nil {
		return err
	}

	if err := m.api.VerifyEmail(ctx, email, token); err != nil {
		if m.audit != nil {
			m.audit.Failure(audit.ActionEmailVerify, email, err)
		}
		return err
	}

	m.mu.Lock()
	if m.user != nil {
		m.user.EmailVerified = true
	}
	m.mu.Unlock()

	if m.audit != nil {
		m.audit.Success(audit.ActionEmailVerify, "", email)
	}
	return nil
}

// Refresh implements transport.Refresher: it exchanges the failing
// credential for a new one and stores it (memory and durable store)
// before returning, so the replayed request presents it.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	token, err := m.api.RefreshToken(ctx)
	if err != nil {
		if m.audit != nil {
			m.audit.Failure(audit.ActionRefresh, "", err)
		}
		return "", fmt.Errorf("authware/session: token refresh: %w", err)
	}

	m.creds.Set(token)
	if err := m.tokens.Save(ctx, token); err != nil {
		m.logger.Warn("persisting refreshed credential failed",
			slog.String("error", err.Error()))
	}
	if m.audit != nil {
		m.audit.Success(audit.ActionRefresh, "", "")
	}
	return token, nil
}

// InvalidateSession clears the session after an unrecoverable refresh
// failure. It is wired as the transport's invalidation hook.
func (m *Manager) InvalidateSession() {
	m.logger.Warn("session invalidated after failed refresh")
	m.clearSession(context.Background())
}

// establish stores a fresh credential and identity: persist first, then
// publish to memory. A persistence failure is logged and does not fail
// the operation; the session remains valid for this process.
func (m *Manager) establish(ctx context.Context, res *AuthResult) {
	if err := m.tokens.Save(ctx, res.AccessToken); err != nil {
		m.logger.Warn("persisting credential failed",
			slog.String("error", err.Error()))
	}
	m.settle(res.User, res.AccessToken)
}

// settle publishes the terminal state of an auth operation. The identity
// is never set without a credential.
func (m *Manager) settle(user *authware.User, token string) {
	m.mu.Lock()
	if token == "" {
		user = nil
		m.creds.Clear()
	} else {
		m.creds.Set(token)
	}
	m.user = user
	if user != nil {
		m.state = authware.StateAuthenticated
	} else {
		m.state = authware.StateUnauthenticated
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetAuthenticated(user != nil)
	}
}

// clearSession drops identity, credential, and persisted credential.
func (m *Manager) clearSession(ctx context.Context) {
	m.clearCredential(ctx)
	m.settle(nil, "")
}

func (m *Manager) clearCredential(ctx context.Context) {
	m.creds.Clear()
	if err := m.tokens.Clear(ctx); err != nil && !errors.Is(err, authware.ErrNoToken) {
		m.logger.Warn("clearing persisted credential failed",
			slog.String("error", err.Error()))
	}
}

func (m *Manager) recordSuccess(method, action string, user *authware.User) {
	if m.metrics != nil {
		m.metrics.RecordAuthAttempt(method, "success")
	}
	if m.audit != nil {
		id, email := "", ""
		if user != nil {
			id, email = user.ID, user.Email
		}
		m.audit.Success(action, id, email)
	}
}

func (m *Manager) recordFailure(method, action, identifier string, err error) {
	if m.metrics != nil {
		m.metrics.RecordAuthAttempt(method, "failure")
		m.metrics.RecordAuthFailure(method, failureReason(err))
	}
	if m.audit != nil {
		m.audit.Failure(action, identifier, err)
	}
}

func failureReason(err error) string {
	var apiErr *authware.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status_%d", apiErr.StatusCode)
	}
	return "network"
}
