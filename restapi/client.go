// Package restapi is the REST/JSON adapter for the remote authentication
// and user-management backend. It implements session.Backend,
// admin.Backend, and transport.Refresher.
//
// Two HTTP clients are held: the authenticated one routes through the
// refresh-and-replay transport; the bare one is used for the refresh
// endpoint itself, so a rejected refresh can never trigger another
// refresh.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/session"
	"github.com/authware/authware-go/transport"
)

// DefaultTimeout bounds individual requests.
const DefaultTimeout = 30 * time.Second

// Client talks to the remote backend.
type Client struct {
	baseURL string
	http    *http.Client
	bare    *http.Client
	source  transport.TokenSource
	logger  *slog.Logger
}

// compile-time checks
var (
	_ session.Backend     = (*Client)(nil)
	_ transport.Refresher = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the authenticated HTTP client. Wire an
// *http.Client whose Transport is a transport.Transport to get bearer
// attachment and refresh-and-replay.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets the credential source used for calls that bypass
// the authenticated client (refresh).
func WithTokenSource(ts transport.TokenSource) Option {
	return func(c *Client) { c.source = ts }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a backend client for the given base URL
// (e.g. "https://api.example.com").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		bare:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetHTTPClient replaces the authenticated HTTP client. Used when the
// refresh transport is built after this client (it needs the session
// manager, which needs this client).
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// authResponse is the success shape shared by the auth endpoints.
type authResponse struct {
	AccessToken string         `json:"access_token"`
	User        *authware.User `json:"user"`
	StatusCode  int            `json:"status_code,omitempty"`
}

type profileResponse struct {
	User *authware.User `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login authenticates with an identifier and password.
func (c *Client) Login(ctx context.Context, creds authware.Credentials) (*session.AuthResult, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &session.AuthResult{AccessToken: resp.AccessToken, User: resp.User}, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, in authware.RegisterInput) (*session.AuthResult, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", in, &resp); err != nil {
		return nil, err
	}
	return &session.AuthResult{AccessToken: resp.AccessToken, User: resp.User}, nil
}

// GoogleLogin signs in with a Google ID token.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*session.GoogleAuthResult, error) {
	body := struct {
		TokenID string `json:"tokenId"`
	}{TokenID: idToken}

	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/googlelogin", body, &resp); err != nil {
		return nil, err
	}
	return &session.GoogleAuthResult{
		AuthResult: session.AuthResult{AccessToken: resp.AccessToken, User: resp.User},
		StatusCode: resp.StatusCode,
	}, nil
}

// AccountSetup completes a Google sign-in that needed local setup.
func (c *Client) AccountSetup(ctx context.Context, in authware.AccountSetupInput) (*session.AuthResult, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/accountsetup", in, &resp); err != nil {
		return nil, err
	}
	return &session.AuthResult{AccessToken: resp.AccessToken, User: resp.User}, nil
}

// Profile returns the identity bound to the presented credential.
func (c *Client) Profile(ctx context.Context) (*authware.User, error) {
	var resp profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile submits changed fields and an optional avatar image as a
// multipart request.
func (c *Client) UpdateProfile(ctx context.Context, update authware.ProfileUpdate) (*authware.User, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range update.Fields() {
		if err := w.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("authware/restapi: write field %s: %w", field, err)
		}
	}
	if len(update.Avatar) > 0 {
		name := update.AvatarName
		if name == "" {
			name = "avatar"
		}
		fw, err := w.CreateFormFile("profileImage", name)
		if err != nil {
			return nil, fmt.Errorf("authware/restapi: create image part: %w", err)
		}
		if _, err := fw.Write(update.Avatar); err != nil {
			return nil, fmt.Errorf("authware/restapi: write image part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("authware/restapi: finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/api/auth/profile", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("authware/restapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp profileResponse
	if err := c.do(c.http, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ForgotPassword asks the server to email a reset OTP.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", body, nil)
}

// ResetPassword redeems an OTP for a new password.
func (c *Client) ResetPassword(ctx context.Context, in authware.ResetPasswordInput) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", in, nil)
}

// VerifyEmail confirms an address with an emailed token.
func (c *Client) VerifyEmail(ctx context.Context, email, token string) error {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return c.doJSON(ctx, http.MethodGet, "/api/auth/verify-email?"+q.Encode(), nil, nil)
}

// Logout notifies the server that the session ended.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// RefreshToken exchanges the failing credential for a new one. It uses
// the bare client so a rejected refresh cannot recurse into another
// refresh-and-replay cycle.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/refresh_token", nil)
	if err != nil {
		return "", fmt.Errorf("authware/restapi: create request: %w", err)
	}
	if c.source != nil {
		if token := c.source.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	var resp refreshResponse
	if err := c.do(c.bare, req, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("authware/restapi: empty access_token in refresh response")
	}
	return resp.AccessToken, nil
}

// Refresh implements transport.Refresher directly for callers that wire
// the client itself as the refresher. Prefer wiring the session manager,
// which also stores the new credential.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.RefreshToken(ctx)
}

// ListUsers returns one page of the admin user listing.
func (c *Client) ListUsers(ctx context.Context, opts authware.ListOptions) (*authware.UserPage, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Role != "" {
		q.Set("role", string(opts.Role))
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.SortOrder != "" {
		q.Set("sortOrder", opts.SortOrder)
	}

	path := "/api/auth/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page authware.UserPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []*authware.User{}
	}
	return &page, nil
}

// DeleteUser removes an account by ID.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/users/"+url.PathEscape(userID), nil, nil)
}

// doJSON issues a JSON request through the authenticated client.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authware/restapi: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("authware/restapi: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(c.http, req, result)
}

// do issues req and decodes the response. Non-2xx responses become
// *authware.APIError carrying the server's message payload when present.
func (c *Client) do(client *http.Client, req *http.Request, result interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("authware/restapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("authware/restapi: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &authware.APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil {
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("authware/restapi: decode response: %w", err)
		}
	}
	return nil
}
