// Package auth resolves credentials against the Admin and Member facts.
//
// Passwords are stored as plaintext facts. The comparison is behind
// PasswordMatcher so a hashed scheme can replace it without touching callers.
package auth

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"

	"library/internal/models"
	"library/internal/schema"
	"library/internal/store"
)

// Authenticator turns a username and password into a role.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (models.Role, bool)
}

// PasswordMatcher compares a stored credential with a supplied password.
type PasswordMatcher interface {
	Match(stored, supplied string) bool
}

// PlaintextMatcher compares the stored value verbatim.
type PlaintextMatcher struct{}

func (PlaintextMatcher) Match(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// Service authenticates against the fact store.
type Service struct {
	store   *store.Store
	matcher PasswordMatcher
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher swaps the password comparison.
func WithMatcher(m PasswordMatcher) Option {
	return func(s *Service) { s.matcher = m }
}

// NewService creates an auth service reading from st.
func NewService(st *store.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: st, matcher: PlaintextMatcher{}, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate scans administrators first, then members, and returns the role
// of the first exact match. An administrator wins if a username exists in both.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Role, bool) {
	var role models.Role
	s.store.View(func(g *store.Graph) {
		for _, id := range schema.InstancesOf(g, schema.Admin) {
			if s.matches(g, id, username, password) {
				role = models.AdminIdentity{ID: id.String(), Username: username}
				return
			}
		}
		for _, id := range schema.InstancesOf(g, schema.Member) {
			if s.matches(g, id, username, password) {
				role = models.MemberIdentity{
					ID:       id.String(),
					Username: username,
					MemberID: schema.LiteralOr(g, id, schema.MemberID, ""),
					Email:    schema.LiteralOr(g, id, schema.Email, ""),
				}
				return
			}
		}
	})

	if role == nil {
		s.logger.Info("Authentication failed", zap.String("username", username))
		return nil, false
	}
	s.logger.Debug("Authenticated", zap.String("username", username), zap.String("role", role.Name()))
	return role, true
}

func (s *Service) matches(g *store.Graph, id schema.ID, username, password string) bool {
	u, ok := schema.Literal(g, id, schema.Username)
	if !ok || u != username {
		return false
	}
	stored, ok := schema.Literal(g, id, schema.Password)
	return ok && s.matcher.Match(stored, password)
}
