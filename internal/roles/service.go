package roles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"

	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/shared"
)

// DefaultStoreTimeout bounds each role store round trip. A timeout surfaces
// as ErrRoleStoreUnavailable, never as "user has no roles".
const DefaultStoreTimeout = 3 * time.Second

// Service is the role mutation service.
type Service struct {
	store          Store
	directory      Directory
	claims         ClaimRefresher
	logger         *slog.Logger
	bootstrapEmail string
	storeTimeout   time.Duration
	fold           cases.Caser
}

// ServiceConfig collects optional Service knobs.
type ServiceConfig struct {
	// BootstrapAdminEmail is granted admin on first signup instead of user.
	BootstrapAdminEmail string
	// StoreTimeout overrides DefaultStoreTimeout when positive.
	StoreTimeout time.Duration
}

// NewService constructs the mutation service. directory and claims may be nil
// when the caller does not need the sweep or live-session refresh.
func NewService(store Store, directory Directory, claims ClaimRefresher, logger *slog.Logger, cfg ServiceConfig) *Service {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	fold := cases.Fold()
	return &Service{
		store:          store,
		directory:      directory,
		claims:         claims,
		logger:         logger,
		bootstrapEmail: fold.String(cfg.BootstrapAdminEmail),
		storeTimeout:   timeout,
		fold:           fold,
	}
}

// Roles returns the user's current role set.
func (s *Service) Roles(ctx context.Context, userID string) (policy.RoleSet, error) {
	set, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Grant adds a role to the user's assignment set. Granting an already-held
// role is a no-op success.
func (s *Service) Grant(ctx context.Context, userID string, role policy.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", shared.ErrInvalidRole, role)
	}
	if err := s.add(ctx, userID, role); err != nil {
		return err
	}
	s.refreshClaims(ctx, userID)
	return nil
}

// Revoke removes a role, then re-derives the baseline invariant from freshly
// read state: whenever the resulting set holds neither admin nor user, the
// user role is re-granted in the same operation. The re-read runs after every
// revoke so a concurrent grant is observed rather than raced.
func (s *Service) Revoke(ctx context.Context, userID string, role policy.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", shared.ErrInvalidRole, role)
	}
	if err := s.remove(ctx, userID, role); err != nil {
		return err
	}
	current, err := s.list(ctx, userID)
	if err != nil {
		return err
	}
	if !current.HasBaseline() {
		if err := s.add(ctx, userID, policy.RoleUser); err != nil {
			return err
		}
	}
	s.refreshClaims(ctx, userID)
	return nil
}

// Bootstrap performs the first-signup assignment: admin when the email
// matches the configured bootstrap address (case-insensitive), user otherwise.
func (s *Service) Bootstrap(ctx context.Context, userID, email string) (policy.Role, error) {
	role := policy.RoleUser
	if s.bootstrapEmail != "" && s.fold.String(email) == s.bootstrapEmail {
		role = policy.RoleAdmin
	}
	if err := s.add(ctx, userID, role); err != nil {
		return "", err
	}
	s.refreshClaims(ctx, userID)
	return role, nil
}

// EnsureRoles backfills the bootstrap assignment for accounts that predate
// role tracking and returns the resulting set. Used on signin.
func (s *Service) EnsureRoles(ctx context.Context, userID, email string) (policy.RoleSet, error) {
	current, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		return current, nil
	}
	role, err := s.Bootstrap(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	return policy.NewRoleSet(role), nil
}

// Reconcile sweeps all known users page by page and backfills any user found
// with zero roles. The sweep is idempotent and resumable: it may start from a
// previously returned cursor, and the zero-roles check is re-read per user
// right before acting so a concurrent grant is never double-assigned over.
func (s *Service) Reconcile(ctx context.Context, cursor string) (ReconcileReport, error) {
	report := ReconcileReport{}
	if s.directory == nil {
		return report, fmt.Errorf("roles: reconcile requires a user directory")
	}
	for {
		report.NextCursor = cursor
		page, err := s.listUsers(ctx, cursor)
		if err != nil {
			return report, err
		}
		for _, user := range page.Users {
			report.UsersSeen++
			current, err := s.list(ctx, user.ID)
			if err != nil {
				return report, err
			}
			if len(current) > 0 {
				continue
			}
			if _, err := s.Bootstrap(ctx, user.ID, user.Email); err != nil {
				return report, err
			}
			report.Backfilled++
		}
		if page.NextCursor == "" {
			report.NextCursor = ""
			return report, nil
		}
		cursor = page.NextCursor
	}
}

func (s *Service) list(ctx context.Context, userID string) (policy.RoleSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	set, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list roles", userID, err)
	}
	return set, nil
}

func (s *Service) add(ctx context.Context, userID string, role policy.Role) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Add(ctx, userID, role); err != nil {
		return s.storeErr("add role", userID, err)
	}
	return nil
}

func (s *Service) remove(ctx context.Context, userID string, role policy.Role) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Remove(ctx, userID, role); err != nil {
		return s.storeErr("remove role", userID, err)
	}
	return nil
}

func (s *Service) listUsers(ctx context.Context, cursor string) (UserPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	page, err := s.directory.ListUsers(ctx, cursor, shared.DefaultPageSize)
	if err != nil {
		return UserPage{}, fmt.Errorf("%w: list users: %v", shared.ErrRoleStoreUnavailable, err)
	}
	return page, nil
}

func (s *Service) storeErr(op, userID string, err error) error {
	if s.logger != nil {
		s.logger.Warn("role store call failed",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.Any("error", err))
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrRoleStoreUnavailable, op, err)
}

// refreshClaims asks the projector to re-embed the roles claim into live
// sessions. Failure must not fail the mutation; it is surfaced to the log.
func (s *Service) refreshClaims(ctx context.Context, userID string) {
	if s.claims == nil {
		return
	}
	if err := s.claims.Refresh(ctx, userID); err != nil && s.logger != nil {
		s.logger.Warn("refresh roles claim", slog.String("user_id", userID), slog.Any("error", err))
	}
}
