package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates cookie based sessions backed by Redis.
//
// Besides the session payload itself it maintains a per-user index set
// (userSessionsKey) so that all live sessions of a user can be located by
// user ID alone. The roles claim projector relies on that index to rewrite
// claims immediately after a role mutation.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	userID    string
	roles     []string
	manager   *SessionManager
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values map[string]string `json:"values"`
	UserID string            `json:"user_id"`
	Roles  []string          `json:"roles"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.sessionKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	sess.values = stored.Values
	sess.userID = stored.UserID
	sess.roles = stored.Roles
	sess.isNew = false
	sess.dirty = false
	return sess, nil
}

// Commit persists the session, updates the per-user index and writes cookie
// headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.sessionKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if sess.userID != "" {
			_ = sm.client.SRem(ctx, sm.userSessionsKey(sess.userID), sess.ID).Err()
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		payload := sessionPayload{Values: sess.values, UserID: sess.userID, Roles: sess.roles}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.sessionKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.userID != "" {
		key := sm.userSessionsKey(sess.userID)
		if err := sm.client.SAdd(ctx, key, sess.ID).Err(); err == nil {
			_ = sm.client.Expire(ctx, key, sm.ttl).Err()
		}
	}

	if sess.ID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(sm.ttl),
		})
	}

	return nil
}

// RefreshRolesClaim rewrites the roles claim in every live session belonging
// to userID and reports how many sessions were updated. Sessions that expired
// since they were indexed are pruned from the index. Zero live sessions is not
// an error; the next session creation picks up current roles.
func (sm *SessionManager) RefreshRolesClaim(ctx context.Context, userID string, roles []string) (int, error) {
	key := sm.userSessionsKey(userID)
	ids, err := sm.client.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		data, err := sm.client.Get(ctx, sm.sessionKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				_ = sm.client.SRem(ctx, key, id).Err()
				continue
			}
			return updated, err
		}
		var stored sessionPayload
		if err := json.Unmarshal(data, &stored); err != nil {
			return updated, err
		}
		if stored.UserID != userID {
			_ = sm.client.SRem(ctx, key, id).Err()
			continue
		}
		stored.Roles = roles
		payload, err := json.Marshal(stored)
		if err != nil {
			return updated, err
		}
		if err := sm.client.Set(ctx, sm.sessionKey(id), payload, redis.KeepTTL).Err(); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// SetUser associates the session with a user ID.
func (s *Session) SetUser(id string) {
	s.userID = id
	s.dirty = true
}

// User returns the current user ID.
func (s *Session) User() string {
	return s.userID
}

// SetRolesClaim embeds the projected roles claim into the session.
func (s *Session) SetRolesClaim(roles []string) {
	s.roles = roles
	s.dirty = true
}

// RolesClaim returns the embedded roles claim, nil when none was projected.
func (s *Session) RolesClaim() []string {
	return s.roles
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:      sm.generateSessionID(),
		values:  make(map[string]string),
		manager: sm,
		isNew:   true,
		dirty:   true,
	}
}

func (sm *SessionManager) sessionKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
