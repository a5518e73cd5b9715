// Package admin provides the user-management console service.
package admin

import (
	"context"
	"fmt"
	"time"

	authware "github.com/authware/authware-go"
	"github.com/authware/authware-go/audit"
	"github.com/authware/authware-go/metrics"
)

// recentLimit is the page size of the dashboard's recent-users widget.
const recentLimit = 10

// Backend defines the contract for pluggable admin backends (REST,
// fake, etc.).
type Backend interface {
	// ListUsers returns one page of users matching the options.
	ListUsers(ctx context.Context, opts authware.ListOptions) (*authware.UserPage, error)

	// DeleteUser removes an account by ID.
	DeleteUser(ctx context.Context, userID string) error
}

// Service implements authware.AdminService with a configurable backend.
type Service struct {
	backend Backend
	metrics *metrics.Metrics
	audit   *audit.Logger
	now     func() time.Time
}

// compile-time check
var _ authware.AdminService = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithMetrics enables admin operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit enables audit events for destructive admin operations.
func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

// withClock overrides time for stats tests.
func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new admin service with the given backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListUsers returns one page of users matching the options.
func (s *Service) ListUsers(ctx context.Context, opts authware.ListOptions) (*authware.UserPage, error) {
	page, err := s.backend.ListUsers(ctx, opts)
	if err != nil {
		s.record("list_users", err)
		return nil, fmt.Errorf("authware/admin: %w", err)
	}
	s.record("list_users", nil)

	if page.TotalPages == 0 {
		page.TotalPages = 1
	}
	if page.CurrentPage == 0 {
		page.CurrentPage = 1
	}
	return page, nil
}

// RecentUsers returns the most recently created users.
func (s *Service) RecentUsers(ctx context.Context) ([]*authware.User, error) {
	page, err := s.backend.ListUsers(ctx, authware.ListOptions{Limit: recentLimit})
	if err != nil {
		s.record("recent_users", err)
		return nil, fmt.Errorf("authware/admin: %w", err)
	}
	s.record("recent_users", nil)
	return page.Users, nil
}

// Stats summarizes the user base for the dashboard. The numbers are
// derived from the user listing on the client side.
func (s *Service) Stats(ctx context.Context) (*authware.UserStats, error) {
	page, err := s.backend.ListUsers(ctx, authware.ListOptions{})
	if err != nil {
		s.record("stats", err)
		return nil, fmt.Errorf("authware/admin: %w", err)
	}
	s.record("stats", nil)

	now := s.now()
	stats := &authware.UserStats{TotalUsers: page.TotalUsers}
	if stats.TotalUsers == 0 {
		stats.TotalUsers = len(page.Users)
	}

	for _, u := range page.Users {
		if u.CreatedAt.Month() == now.Month() && u.CreatedAt.Year() == now.Year() {
			stats.NewUsersThisMonth++
		}
		if u.EmailVerified {
			stats.VerifiedUsers++
		}
		if u.Role.IsAdmin() {
			stats.AdminUsers++
		}
		if u.Active {
			stats.ActiveUsers++
		}
	}
	return stats, nil
}

// DeleteUser removes an account by ID.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("authware/admin: userID cannot be empty")
	}

	if err := s.backend.DeleteUser(ctx, userID); err != nil {
		s.record("delete_user", err)
		if s.audit != nil {
			s.audit.Failure(audit.ActionUserDelete, "", err)
		}
		return fmt.Errorf("authware/admin: %w", err)
	}
	s.record("delete_user", nil)
	if s.audit != nil {
		s.audit.Success(audit.ActionUserDelete, userID, "")
	}
	return nil
}

func (s *Service) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.metrics.RecordAdminRequest(operation, result)
}
