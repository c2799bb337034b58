// Package claims projects a user's role set into a session-embedded claim so
// clients can evaluate access without a server round trip per decision.
package claims

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/roles"
)

// SessionPatcher rewrites the roles claim in every live session of a user.
// Implemented by shared.SessionManager.
type SessionPatcher interface {
	RefreshRolesClaim(ctx context.Context, userID string, rolesClaim []string) (int, error)
}

// Projector recomputes and re-embeds the roles claim after role mutations.
type Projector struct {
	store    roles.Store
	sessions SessionPatcher
	logger   *slog.Logger
}

// NewProjector constructs a Projector.
func NewProjector(store roles.Store, sessions SessionPatcher, logger *slog.Logger) *Projector {
	return &Projector{store: store, sessions: sessions, logger: logger}
}

// Project maps a role set to its claim value: the sorted role names.
func Project(set policy.RoleSet) []string {
	return set.Names()
}

// Refresh re-reads the user's current roles and rewrites the claim in every
// live session. No live session is a no-op; the next session creation picks
// up current roles on its own.
func (p *Projector) Refresh(ctx context.Context, userID string) error {
	set, err := p.store.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("claims: read roles for %s: %w", userID, err)
	}
	updated, err := p.sessions.RefreshRolesClaim(ctx, userID, Project(set))
	if err != nil {
		return fmt.Errorf("claims: patch sessions for %s: %w", userID, err)
	}
	if p.logger != nil && updated > 0 {
		p.logger.Debug("refreshed roles claim",
			slog.String("user_id", userID),
			slog.Int("sessions", updated))
	}
	return nil
}

var _ roles.ClaimRefresher = (*Projector)(nil)
