// Package profile projects the current user for clients whose session claim
// is absent or stale.
package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/atrium-app/atrium/internal/identity"
	"github.com/atrium-app/atrium/internal/policy"
)

// IdentityReader looks a user up in the identity store.
type IdentityReader interface {
	GetUser(ctx context.Context, id string) (*identity.User, error)
}

// RoleReader reads the current role set.
type RoleReader interface {
	Roles(ctx context.Context, userID string) (policy.RoleSet, error)
}

// Profile is the /api/me payload.
type Profile struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt"`
	Roles     []string   `json:"roles"`
	Sections  []string   `json:"sections"`
}

// Service assembles profiles.
type Service struct {
	identities IdentityReader
	roles      RoleReader
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(identities IdentityReader, roles RoleReader, logger *slog.Logger) *Service {
	return &Service{identities: identities, roles: roles, logger: logger}
}

// GetProfile degrades gracefully: an identity lookup failure leaves email and
// createdAt empty, a role store failure reports roles explicitly empty. Both
// failures are logged; the call itself succeeds either way so the front end
// always has a fallback when the session claim is missing.
func (s *Service) GetProfile(ctx context.Context, userID string) Profile {
	p := Profile{UserID: userID, Roles: []string{}, Sections: []string{}}

	if user, err := s.identities.GetUser(ctx, userID); err != nil {
		if s.logger != nil {
			s.logger.Warn("profile identity lookup", slog.String("user_id", userID), slog.Any("error", err))
		}
	} else {
		p.Email = user.Email
		created := user.CreatedAt
		p.CreatedAt = &created
	}

	set, err := s.roles.Roles(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("profile roles lookup", slog.String("user_id", userID), slog.Any("error", err))
		}
		return p
	}
	p.Roles = set.Names()
	for _, section := range policy.AllowedSections(set) {
		p.Sections = append(p.Sections, string(section))
	}
	return p
}
