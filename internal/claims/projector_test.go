package claims_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-app/atrium/internal/claims"
	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/shared"
	_ "github.com/atrium-app/atrium/testing"
)

type memStore struct {
	mu   sync.Mutex
	sets map[string]policy.RoleSet
	fail bool
}

func (m *memStore) List(ctx context.Context, userID string) (policy.RoleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("store down")
	}
	out := policy.NewRoleSet()
	for r := range m.sets[userID] {
		out[r] = struct{}{}
	}
	return out, nil
}

func (m *memStore) Add(ctx context.Context, userID string, role policy.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets == nil {
		m.sets = map[string]policy.RoleSet{}
	}
	if m.sets[userID] == nil {
		m.sets[userID] = policy.NewRoleSet()
	}
	m.sets[userID][role] = struct{}{}
	return nil
}

func (m *memStore) Remove(ctx context.Context, userID string, role policy.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[userID], role)
	return nil
}

// establishSession creates and commits a session for userID, returning its
// cookie so it can be reloaded later.
func establishSession(t *testing.T, sm *shared.SessionManager, userID string) *http.Cookie {
	t.Helper()
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser(userID)
	sess.SetRolesClaim([]string{"user"})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func reloadSession(t *testing.T, sm *shared.SessionManager, cookie *http.Cookie) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestRefreshRewritesLiveSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	store := &memStore{}
	require.NoError(t, store.Add(context.Background(), "u1", policy.RoleUser))

	first := establishSession(t, sm, "u1")
	second := establishSession(t, sm, "u1")
	other := establishSession(t, sm, "u2")

	require.NoError(t, store.Add(context.Background(), "u1", policy.RoleGames))
	projector := claims.NewProjector(store, sm, nil)
	require.NoError(t, projector.Refresh(context.Background(), "u1"))

	assert.Equal(t, []string{"games", "user"}, reloadSession(t, sm, first).RolesClaim())
	assert.Equal(t, []string{"games", "user"}, reloadSession(t, sm, second).RolesClaim())
	// Another user's session is untouched.
	assert.Equal(t, []string{"user"}, reloadSession(t, sm, other).RolesClaim())
}

func TestRefreshWithoutLiveSessionsIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	store := &memStore{}
	require.NoError(t, store.Add(context.Background(), "ghost", policy.RoleUser))

	projector := claims.NewProjector(store, sm, nil)
	require.NoError(t, projector.Refresh(context.Background(), "ghost"))
}

func TestRefreshPropagatesStoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	store := &memStore{fail: true}
	projector := claims.NewProjector(store, sm, nil)
	require.Error(t, projector.Refresh(context.Background(), "u1"))
}

func TestProject(t *testing.T) {
	assert.Equal(t, []string{"admin", "user"}, claims.Project(policy.NewRoleSet(policy.RoleUser, policy.RoleAdmin)))
	assert.Equal(t, []string{}, claims.Project(policy.NewRoleSet()))
}
