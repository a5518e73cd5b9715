// Package guard gates access to protected views based on session state.
//
// Decide is a pure function of the session state, the identity, and the
// admin-only flag; it holds no state of its own. Adapters (for example
// middleware/ginmw) translate the Decision into redirects for their
// framework.
package guard

import (
	authware "github.com/authware/authware-go"
)

// Kind classifies a guard decision.
type Kind int

const (
	// Pending means the session is still bootstrapping: render a neutral
	// pending indicator, no navigation.
	Pending Kind = iota

	// Allow means the protected content may render.
	Allow

	// RedirectSignIn means navigate to the sign-in view, carrying the
	// originally requested location for the post-login return.
	RedirectSignIn

	// RedirectHome means the user is authenticated but not authorized
	// for this view: navigate to the default landing view.
	RedirectHome
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectSignIn:
		return "redirect-sign-in"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decision is the outcome of a guard check.
type Decision struct {
	Kind Kind

	// PreserveLocation is set on sign-in redirects so the caller can
	// carry the originally requested location through the login flow.
	PreserveLocation bool
}

// Decide gates one protected view. Authorization is an exhaustive match
// on the closed role set: an identity with an unknown role never sees
// admin content.
func Decide(state authware.SessionState, user *authware.User, requireAdmin bool) Decision {
	switch state {
	case authware.StateUninitialized, authware.StateLoading:
		return Decision{Kind: Pending}

	case authware.StateUnauthenticated:
		return Decision{Kind: RedirectSignIn, PreserveLocation: true}

	case authware.StateAuthenticated:
		if user == nil {
			// An authenticated state without an identity violates the
			// session invariant; treat it as signed out.
			return Decision{Kind: RedirectSignIn, PreserveLocation: true}
		}
		if !requireAdmin {
			return Decision{Kind: Allow}
		}
		switch user.Role {
		case authware.RoleAdmin:
			return Decision{Kind: Allow}
		case authware.RoleUser:
			return Decision{Kind: RedirectHome}
		}
		return Decision{Kind: RedirectHome}
	}

	return Decision{Kind: Pending}
}
