package roles_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
	_ "github.com/atrium-app/atrium/testing"
)

type stubEnqueuer struct {
	enqueued int
}

func (s *stubEnqueuer) EnqueueReconcile(ctx context.Context) error {
	s.enqueued++
	return nil
}

func injectSession(sess *shared.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess != nil {
				r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newAdminRouter(t *testing.T, store *memStore, dir roles.Directory, enqueuer roles.TaskEnqueuer) (http.Handler, *roles.Service) {
	t.Helper()
	svc := newService(store, dir, nil, "")
	require.NoError(t, svc.Grant(context.Background(), "admin-1", policy.RoleAdmin))
	mw := &roles.Middleware{Service: svc}
	handler := roles.NewHandler(nil, svc, dir, enqueuer, mw)

	r := chi.NewRouter()
	r.Use(injectSession(newTestSession(t, "admin-1")))
	handler.MountRoutes(r)
	return r, svc
}

func TestGrantRoleEndpoint(t *testing.T) {
	store := newMemStore()
	router, _ := newAdminRouter(t, store, &stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/u2/roles", strings.NewReader(`{"role":"games"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		UserID string   `json:"userId"`
		Roles  []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "u2", body.UserID)
	assert.Equal(t, []string{"games"}, body.Roles)
}

func TestGrantRoleEndpointRejectsUnknownRole(t *testing.T) {
	store := newMemStore()
	router, _ := newAdminRouter(t, store, &stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/u2/roles", strings.NewReader(`{"role":"superuser"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, store.names("u2"))
}

func TestRevokeRoleEndpointKeepsBaseline(t *testing.T) {
	store := newMemStore()
	router, svc := newAdminRouter(t, store, &stubDirectory{}, nil)
	require.NoError(t, svc.Grant(context.Background(), "u2", policy.RoleUser))

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/u2/roles/user", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, []string{"user"}, body.Roles)
}

func TestListUsersEndpoint(t *testing.T) {
	store := newMemStore()
	dir := &stubDirectory{pages: map[string]roles.UserPage{
		"": {
			Users:      []roles.UserRef{{ID: "admin-1", Email: "root@example.com"}, {ID: "u2", Email: "u2@example.com"}},
			NextCursor: "p2",
		},
	}}
	router, svc := newAdminRouter(t, store, dir, nil)
	require.NoError(t, svc.Grant(context.Background(), "u2", policy.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Users []struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		} `json:"users"`
		NextToken string `json:"nextToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Users, 2)
	assert.Equal(t, []string{"admin"}, body.Users[0].Roles)
	assert.Equal(t, []string{"user"}, body.Users[1].Roles)
	assert.Equal(t, "p2", body.NextToken)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubDirectory{}, nil, "")
	require.NoError(t, svc.Grant(context.Background(), "plain", policy.RoleUser))
	mw := &roles.Middleware{Service: svc}
	handler := roles.NewHandler(nil, svc, &stubDirectory{}, nil, mw)

	r := chi.NewRouter()
	r.Use(injectSession(newTestSession(t, "plain")))
	handler.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubDirectory{}, nil, "")
	mw := &roles.Middleware{Service: svc}
	handler := roles.NewHandler(nil, svc, &stubDirectory{}, nil, mw)

	r := chi.NewRouter()
	handler.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// The seed endpoint stays reachable without any session.
	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/roles/seed-if-missing", nil))
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestSeedIfMissingEnqueues(t *testing.T) {
	store := newMemStore()
	enqueuer := &stubEnqueuer{}
	router, _ := newAdminRouter(t, store, &stubDirectory{}, enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/api/roles/seed-if-missing", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusAccepted, res.Code)
	assert.Equal(t, 1, enqueuer.enqueued)
}

func TestSeedIfMissingRunsInlineWithoutEnqueuer(t *testing.T) {
	store := newMemStore()
	dir := &stubDirectory{pages: map[string]roles.UserPage{
		"": {Users: []roles.UserRef{{ID: "x", Email: "x@example.com"}}},
	}}
	router, _ := newAdminRouter(t, store, dir, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/roles/seed-if-missing", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var report roles.ReconcileReport
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Backfilled)
	assert.Equal(t, []string{"user"}, store.names("x"))
}
