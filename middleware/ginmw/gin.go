// Package ginmw provides Gin HTTP middleware for protected views.
//
// RequireSession adapts guard.Decide to Gin: pending sessions get a
// neutral retry response, signed-out visitors are redirected to the
// sign-in view with the requested location preserved, and authenticated
// non-admins are redirected away from admin-only views.
package ginmw

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/guard"
	"github.com/authware/authware-go/transport"
)

// Context keys for storing session data in gin.Context.
const (
	KeyUser = "authware_user"
	KeyRole = "authware_role"
)

// Default navigation targets.
const (
	DefaultSignInPath = "/login"
	DefaultHomePath   = "/dashboard"

	// FromParam carries the originally requested location through the
	// sign-in redirect.
	FromParam = "from"
)

// GuardOption configures RequireSession behavior.
type GuardOption func(*guardConfig)

type guardConfig struct {
	signInPath string
	homePath   string
}

// WithSignInPath overrides the sign-in redirect target.
func WithSignInPath(path string) GuardOption {
	return func(cfg *guardConfig) { cfg.signInPath = path }
}

// WithHomePath overrides the default landing view redirect target.
func WithHomePath(path string) GuardOption {
	return func(cfg *guardConfig) { cfg.homePath = path }
}

// RequireSession returns Gin middleware that gates a protected view on
// the session state. With requireAdmin set, only administrator
// identities pass.
func RequireSession(sessions authware.SessionService, requireAdmin bool, opts ...GuardOption) gin.HandlerFunc {
	cfg := &guardConfig{
		signInPath: DefaultSignInPath,
		homePath:   DefaultHomePath,
	}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		user := sessions.CurrentUser()
		decision := guard.Decide(sessions.State(), user, requireAdmin)

		switch decision.Kind {
		case guard.Pending:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})

		case guard.RedirectSignIn:
			target := cfg.signInPath
			if decision.PreserveLocation {
				target += "?" + FromParam + "=" + url.QueryEscape(c.Request.URL.RequestURI())
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()

		case guard.RedirectHome:
			c.Redirect(http.StatusFound, cfg.homePath)
			c.Abort()

		case guard.Allow:
			c.Set(KeyUser, user)
			c.Set(KeyRole, user.Role)
			c.Request = c.Request.WithContext(authware.WithUser(c.Request.Context(), user))
			c.Next()
		}
	}
}

// RequestID returns middleware that ensures every request carries a
// correlation ID: an incoming X-Request-ID header is honored, otherwise
// one is generated. The ID is echoed on the response and stored in the
// request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(transport.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(transport.HeaderRequestID, id)
		c.Request = c.Request.WithContext(authware.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// --- Context helpers ---

// GetUser returns the authenticated identity from the Gin context.
func GetUser(c *gin.Context) *authware.User {
	v, _ := c.Get(KeyUser)
	u, _ := v.(*authware.User)
	return u
}

// GetRole returns the authenticated role from the Gin context.
func GetRole(c *gin.Context) authware.Role {
	v, _ := c.Get(KeyRole)
	r, _ := v.(authware.Role)
	return r
}
