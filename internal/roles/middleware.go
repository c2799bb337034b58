package roles

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/shared"
)

// Middleware wires policy-backed authorization for HTTP handlers.
//
// A missing or anonymous session answers 401; a loaded role set that the
// policy rejects answers 403; a role store failure answers 503. The store
// failure path is deliberately not treated as an empty role set.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger

	// group collapses concurrent role reads for the same user into one
	// store round trip.
	group singleflight.Group
}

// RequireSession ensures an authenticated session exists.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.currentUserID(r); !ok {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSection gates a route group behind the access policy for a section.
func (m *Middleware) RequireSection(section policy.Section) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			set, err := m.userRoles(r, userID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("load roles for gate", slog.String("user_id", userID), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !policy.CanAccess(set, section) {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userRoles prefers the session-embedded claim and falls back to a fresh
// store read. Absence of a claim is not "no roles": the store is consulted
// before any deny decision is made.
func (m *Middleware) userRoles(r *http.Request, userID string) (policy.RoleSet, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if claim := sess.RolesClaim(); claim != nil {
			set := policy.NewRoleSet()
			for _, name := range claim {
				set[policy.Role(name)] = struct{}{}
			}
			return set, nil
		}
	}
	v, err, _ := m.group.Do(userID, func() (any, error) {
		return m.Service.Roles(r.Context(), userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(policy.RoleSet), nil
}

func (m *Middleware) currentUserID(r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", false
	}
	id := strings.TrimSpace(sess.User())
	if id == "" {
		return "", false
	}
	return id, true
}
