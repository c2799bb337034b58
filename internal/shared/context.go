package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the request session to the context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the attached session, nil when the request never
// passed through the session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// UserIDFromContext is a convenience for handlers that only need the
// authenticated user ID. Empty means anonymous.
func UserIDFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.User()
	}
	return ""
}
