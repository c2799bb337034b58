// Package roles persists role assignments and orchestrates every mutation of
// them: admin grant/revoke, the signup/signin bootstrap assignment and the
// batch reconciliation sweep. It owns the baseline invariant: once a user has
// signed in, their role set always contains admin or user.
package roles

import (
	"context"

	"github.com/atrium-app/atrium/internal/policy"
)

// Store persists the role assignment set per user identifier.
// Individual operations are atomic at the store level; the mutation service
// layers the baseline invariant on top by re-reading fresh state.
type Store interface {
	List(ctx context.Context, userID string) (policy.RoleSet, error)
	Add(ctx context.Context, userID string, role policy.Role) error
	Remove(ctx context.Context, userID string, role policy.Role) error
}

// UserRef is the minimal identity projection the sweep needs.
type UserRef struct {
	ID    string
	Email string
}

// UserPage is one page of the identity listing.
type UserPage struct {
	Users      []UserRef
	NextCursor string
}

// Directory iterates all known users page by page. Implemented by the
// identity service.
type Directory interface {
	ListUsers(ctx context.Context, cursor string, limit int) (UserPage, error)
}

// ClaimRefresher re-embeds the roles claim into live sessions after a
// mutation. Implemented by the claims projector.
type ClaimRefresher interface {
	Refresh(ctx context.Context, userID string) error
}

// TaskEnqueuer schedules the reconciliation sweep to run out of band.
type TaskEnqueuer interface {
	EnqueueReconcile(ctx context.Context) error
}

// ReconcileReport summarises one reconciliation sweep.
type ReconcileReport struct {
	UsersSeen  int    `json:"usersSeen"`
	Backfilled int    `json:"backfilled"`
	NextCursor string `json:"nextCursor,omitempty"`
}
