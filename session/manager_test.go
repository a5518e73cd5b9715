package session_test

import (
	"context"
	"errors"
	"testing"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/fake"
	"github.com/authware/authware-go/session"
	"github.com/authware/authware-go/store"
	"github.com/authware/authware-go/transport"
	"github.com/authware/authware-go/validation"
)

func testUser() *authware.User {
	return &authware.User{
		ID:       "user-1",
		FullName: "Ada Lovelace",
		Username: "ada",
		Email:    "ada@example.com",
		Role:     authware.RoleUser,
		Active:   true,
	}
}

func newTestManager(t *testing.T, opts ...fake.Option) (*session.Manager, *fake.Backend, *store.MemoryStore) {
	t.Helper()
	holder := transport.NewTokenHolder()
	backend := fake.NewBackend(append(opts, fake.WithTokenSource(holder))...)
	tokens := store.NewMemory()
	m := session.NewManager(backend, tokens, session.WithTokenHolder(holder))
	return m, backend, tokens
}

func TestBootstrap_NoCredentialSkipsNetwork(t *testing.T) {
	m, backend, _ := newTestManager(t)

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if got := m.State(); got != authware.StateUnauthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateUnauthenticated)
	}
	if got := backend.Calls("profile"); got != 0 {
		t.Errorf("profile calls = %d, want 0 without a persisted credential", got)
	}
}

func TestBootstrap_RestoresSession(t *testing.T) {
	m, backend, tokens := newTestManager(t, fake.WithUser(testUser(), "secret123"))
	backend.SeedToken("t-persisted", "user-1")
	if err := tokens.Save(context.Background(), "t-persisted"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if got := m.State(); got != authware.StateAuthenticated {
		t.Fatalf("state = %s, want %s", got, authware.StateAuthenticated)
	}
	if user := m.CurrentUser(); user == nil || user.ID != "user-1" {
		t.Errorf("CurrentUser() = %+v, want user-1", user)
	}
	if got := m.Token(); got != "t-persisted" {
		t.Errorf("Token() = %q, want %q", got, "t-persisted")
	}
}

func TestBootstrap_RejectedCredentialClearsStore(t *testing.T) {
	m, _, tokens := newTestManager(t)
	if err := tokens.Save(context.Background(), "t-stale"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v, want nil on auth failure", err)
	}

	if got := m.State(); got != authware.StateUnauthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateUnauthenticated)
	}
	if m.CurrentUser() != nil {
		t.Error("expected no identity after rejected credential")
	}
	if _, err := tokens.Load(context.Background()); !errors.Is(err, authware.ErrNoToken) {
		t.Errorf("store load error = %v, want ErrNoToken", err)
	}
}

func TestBootstrap_RunsOnce(t *testing.T) {
	m, _, _ := newTestManager(t)

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("first Bootstrap() error = %v", err)
	}
	if err := m.Bootstrap(context.Background()); err == nil {
		t.Error("second Bootstrap() = nil, want error")
	}
}

func TestLogin_PersistsCredential(t *testing.T) {
	m, _, tokens := newTestManager(t, fake.WithUser(testUser(), "secret123"))

	user, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user ID = %q, want %q", user.ID, "user-1")
	}

	if got := m.State(); got != authware.StateAuthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateAuthenticated)
	}
	persisted, err := tokens.Load(context.Background())
	if err != nil {
		t.Fatalf("loading persisted credential: %v", err)
	}
	if persisted != m.Token() {
		t.Errorf("persisted credential %q differs from in-memory %q", persisted, m.Token())
	}
	if persisted != "token-1" {
		t.Errorf("persisted credential = %q, want %q", persisted, "token-1")
	}
}

func TestLogin_BadPassword(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithUser(testUser(), "secret123"))

	_, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "wrongwrong",
	})
	if !authware.IsStatus(err, 401) {
		t.Fatalf("Login() error = %v, want a 401 API error", err)
	}
	if m.Token() != "" {
		t.Errorf("Token() = %q, want empty after failed login", m.Token())
	}
}

func TestLogin_ValidationSkipsBackend(t *testing.T) {
	m, backend, _ := newTestManager(t)

	_, err := m.Login(context.Background(), authware.Credentials{Identifier: "ada@example.com"})
	var fieldErrs validation.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Login() error = %T, want validation.FieldErrors", err)
	}
	if got := backend.Calls("login"); got != 0 {
		t.Errorf("login calls = %d, want 0 on validation failure", got)
	}
}

func TestRegister_SignsIn(t *testing.T) {
	m, _, _ := newTestManager(t)

	user, err := m.Register(context.Background(), authware.RegisterInput{
		FullName: "Grace Hopper",
		Username: "grace",
		Email:    "grace@example.com",
		Password: "secret123",
		Role:     authware.RoleUser,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("user email = %q, want %q", user.Email, "grace@example.com")
	}
	if got := m.State(); got != authware.StateAuthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateAuthenticated)
	}
}

func TestGoogleLogin_NeedsSetupStoresNothing(t *testing.T) {
	partial := &authware.User{FullName: "New Person", Email: "new@example.com"}
	m, _, tokens := newTestManager(t, fake.WithGooglePending("id-token-1", partial))

	res, err := m.GoogleLogin(context.Background(), "id-token-1")
	if err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}
	if !res.NeedsSetup {
		t.Fatal("NeedsSetup = false, want true")
	}
	if res.User == nil || res.User.Email != "new@example.com" {
		t.Errorf("partial identity = %+v, want new@example.com", res.User)
	}

	if m.Token() != "" {
		t.Errorf("Token() = %q, want empty for needs-setup", m.Token())
	}
	if _, err := tokens.Load(context.Background()); !errors.Is(err, authware.ErrNoToken) {
		t.Errorf("store load error = %v, want ErrNoToken", err)
	}
	if got := m.State(); got == authware.StateAuthenticated {
		t.Error("state = authenticated, want not authenticated for needs-setup")
	}
}

func TestGoogleLogin_RegisteredAccount(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithGoogleUser("id-token-1", testUser()))

	res, err := m.GoogleLogin(context.Background(), "id-token-1")
	if err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}
	if res.NeedsSetup {
		t.Error("NeedsSetup = true, want false for a registered account")
	}
	if got := m.State(); got != authware.StateAuthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateAuthenticated)
	}
	if m.Token() == "" {
		t.Error("expected a credential after full Google sign-in")
	}
}

func TestAccountSetup_CompletesGoogleFlow(t *testing.T) {
	partial := &authware.User{FullName: "New Person", Email: "new@example.com"}
	m, _, _ := newTestManager(t, fake.WithGooglePending("id-token-1", partial))

	if _, err := m.GoogleLogin(context.Background(), "id-token-1"); err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}

	user, err := m.AccountSetup(context.Background(), authware.AccountSetupInput{
		Username: "newperson",
		Email:    "new@example.com",
		Password: "secret123",
		Role:     authware.RoleUser,
	})
	if err != nil {
		t.Fatalf("AccountSetup() error = %v", err)
	}
	if user.Username != "newperson" {
		t.Errorf("username = %q, want %q", user.Username, "newperson")
	}
	if got := m.State(); got != authware.StateAuthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateAuthenticated)
	}
}

func TestLogout_LocalFirstDespiteServerFailure(t *testing.T) {
	m, backend, tokens := newTestManager(t,
		fake.WithUser(testUser(), "secret123"),
		fake.WithLogoutFailure())

	if _, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v, want nil even when the server fails", err)
	}

	if got := m.State(); got != authware.StateUnauthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateUnauthenticated)
	}
	if m.CurrentUser() != nil {
		t.Error("expected no identity after logout")
	}
	if m.Token() != "" {
		t.Errorf("Token() = %q, want empty after logout", m.Token())
	}
	if _, err := tokens.Load(context.Background()); !errors.Is(err, authware.ErrNoToken) {
		t.Errorf("store load error = %v, want ErrNoToken", err)
	}
	if got := backend.Calls("logout"); got != 1 {
		t.Errorf("logout calls = %d, want 1", got)
	}
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.UpdateProfile(context.Background(), authware.ProfileUpdate{FullName: "X"})
	if !errors.Is(err, authware.ErrNotAuthenticated) {
		t.Errorf("UpdateProfile() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestUpdateProfile_ReplacesIdentity(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithUser(testUser(), "secret123"))

	if _, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	updated, err := m.UpdateProfile(context.Background(), authware.ProfileUpdate{
		FullName:   "Ada King",
		AvatarName: "ada.png",
		Avatar:     []byte{0x89, 0x50},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.FullName != "Ada King" {
		t.Errorf("full name = %q, want %q", updated.FullName, "Ada King")
	}
	if current := m.CurrentUser(); current.FullName != "Ada King" {
		t.Errorf("CurrentUser full name = %q, want %q", current.FullName, "Ada King")
	}
	if updated.Avatar == "" {
		t.Error("expected an avatar path after upload")
	}
}

func TestVerifyEmail_FlipsFlag(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithUser(testUser(), "secret123"))

	if _, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if m.CurrentUser().EmailVerified {
		t.Fatal("precondition: user starts unverified")
	}

	if err := m.VerifyEmail(context.Background(), "ada@example.com", "verify-token"); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if !m.CurrentUser().EmailVerified {
		t.Error("EmailVerified = false after successful verification, want true")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithUser(testUser(), "secret123"))
	ctx := context.Background()

	if err := m.RequestPasswordReset(ctx, "nobody@example.com"); err == nil {
		t.Error("RequestPasswordReset() for unknown email = nil, want error")
	}
	if err := m.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
		t.Errorf("RequestPasswordReset() error = %v", err)
	}

	bad := authware.ResetPasswordInput{
		Email:           "ada@example.com",
		OTP:             "000000",
		NewPassword:     "changed123",
		ConfirmPassword: "changed123",
	}
	if err := m.ResetPassword(ctx, bad); err == nil {
		t.Error("ResetPassword() with wrong OTP = nil, want error")
	}

	good := bad
	good.OTP = "123456"
	if err := m.ResetPassword(ctx, good); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := m.Login(ctx, authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "changed123",
	}); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

func TestRefresh_StoresBeforeReturning(t *testing.T) {
	m, backend, tokens := newTestManager(t, fake.WithUser(testUser(), "secret123"))
	ctx := context.Background()

	if _, err := m.Login(ctx, authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	old := m.Token()
	backend.ExpireToken(old)

	token, err := m.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if token == old {
		t.Error("refresh returned the expired credential")
	}
	if m.Token() != token {
		t.Errorf("in-memory credential = %q, want refreshed %q", m.Token(), token)
	}
	persisted, err := tokens.Load(ctx)
	if err != nil {
		t.Fatalf("loading persisted credential: %v", err)
	}
	if persisted != token {
		t.Errorf("persisted credential = %q, want refreshed %q", persisted, token)
	}
}

func TestRefresh_FailureSurfacesError(t *testing.T) {
	m, _, _ := newTestManager(t, fake.WithRefreshFailure())

	if _, err := m.Refresh(context.Background()); err == nil {
		t.Error("Refresh() = nil, want error when the refresh token is rejected")
	}
}

func TestInvalidateSession_ClearsEverything(t *testing.T) {
	m, _, tokens := newTestManager(t, fake.WithUser(testUser(), "secret123"))

	if _, err := m.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	m.InvalidateSession()

	if got := m.State(); got != authware.StateUnauthenticated {
		t.Errorf("state = %s, want %s", got, authware.StateUnauthenticated)
	}
	if m.Token() != "" {
		t.Errorf("Token() = %q, want empty", m.Token())
	}
	if _, err := tokens.Load(context.Background()); !errors.Is(err, authware.ErrNoToken) {
		t.Errorf("store load error = %v, want ErrNoToken", err)
	}
}
