// Package transport provides the authenticated http.RoundTripper used for
// every call to the backend.
//
// It attaches the current bearer credential to outbound requests and
// intercepts authorization failures: a request answered with 401 triggers
// one token refresh and one replay of the original request. The replay is
// issued through the base transport, so a replayed request can never be
// retried again. If the refresh itself fails, the session invalidation
// hook runs and the original failure is returned to the caller.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/authware/authware-go/metrics"
)

// HeaderRequestID is the correlation header attached to every request.
const HeaderRequestID = "X-Request-ID"

// TokenSource supplies the current bearer credential. An empty string
// means no credential is held and no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// Refresher exchanges a failing credential for a new one. Implementations
// must store the new credential (memory and durable storage) before
// returning it, so a replayed request and all later requests present it.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// ShouldRetry is the replay decision for the refresh-and-replay path:
// it permits exactly one replay of a request that failed with 401,
// independent of any particular HTTP client mechanism.
func ShouldRetry(status, attempts int) bool {
	return status == http.StatusUnauthorized && attempts == 0
}

// Transport implements http.RoundTripper with bearer attachment and
// one-shot refresh-and-replay on 401.
type Transport struct {
	base      http.RoundTripper
	source    TokenSource
	refresher Refresher
	onInvalid func()
	logger    *slog.Logger
	metrics   *metrics.Metrics

	sf singleflight.Group
}

// compile-time check
var _ http.RoundTripper = (*Transport)(nil)

// Option configures the Transport.
type Option func(*Transport)

// WithBase sets the underlying round tripper. Default: http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) { t.base = rt }
}

// WithRefresher enables the refresh-and-replay path.
func WithRefresher(r Refresher) Option {
	return func(t *Transport) { t.refresher = r }
}

// WithInvalidationHook sets the callback run when a refresh fails.
// The session manager uses it to clear the session.
func WithInvalidationHook(fn func()) Option {
	return func(t *Transport) { t.onInvalid = fn }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithMetrics enables refresh and replay metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// New creates a Transport reading credentials from source.
func New(source TokenSource, opts ...Option) *Transport {
	t := &Transport{
		base:   http.DefaultTransport,
		source: source,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqID := uuid.NewString()

	resp, err := t.send(req, t.source.Token(), reqID)
	if err != nil {
		return nil, err
	}
	if t.refresher == nil || !ShouldRetry(resp.StatusCode, 0) {
		return resp, nil
	}

	token, refreshErr := t.refresh(req.Context())
	if refreshErr != nil {
		t.logger.Warn("token refresh failed, clearing session",
			slog.String("request_id", reqID),
			slog.String("error", refreshErr.Error()))
		if t.metrics != nil {
			t.metrics.RecordRefresh("failure")
		}
		if t.onInvalid != nil {
			t.onInvalid()
		}
		// Surface the original authorization failure to the caller.
		return resp, nil
	}
	if t.metrics != nil {
		t.metrics.RecordRefresh("success")
	}

	replay, ok := rewind(req)
	if !ok {
		t.logger.Warn("request body not replayable, returning original response",
			slog.String("request_id", reqID))
		return resp, nil
	}

	discard(resp)
	if t.metrics != nil {
		t.metrics.RecordReplay()
	}
	return t.send(replay, token, reqID)
}

// send issues one attempt through the base transport with the credential
// and correlation header attached. The caller's request is never mutated.
func (t *Transport) send(req *http.Request, token, reqID string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	clone.Header.Set(HeaderRequestID, reqID)
	return t.base.RoundTrip(clone)
}

// refresh coalesces concurrent refresh attempts into a single call.
func (t *Transport) refresh(ctx context.Context) (string, error) {
	v, err, _ := t.sf.Do("refresh", func() (interface{}, error) {
		return t.refresher.Refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// rewind prepares a second attempt of req. Requests without a body are
// replayable as-is; requests with a body need GetBody.
func rewind(req *http.Request) (*http.Request, bool) {
	if req.Body == nil {
		return req, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	replay := req.Clone(req.Context())
	replay.Body = body
	return replay, true
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// TokenHolder is the shared in-memory credential cell. The session
// manager is its only writer outside the refresh path; the Transport
// reads it on every request.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

// compile-time check
var _ TokenSource = (*TokenHolder)(nil)

// NewTokenHolder creates an empty credential cell.
func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// Token returns the held credential, or "" when none is held.
func (h *TokenHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Set replaces the held credential.
func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

// Clear drops the held credential.
func (h *TokenHolder) Clear() {
	h.mu.Lock()
	h.token = ""
	h.mu.Unlock()
}
