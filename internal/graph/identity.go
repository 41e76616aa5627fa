package graph

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned whenever a user id cannot be resolved from a
// session. The message is identical for every failure shape so a response
// can never reveal which part of the session was missing.
var ErrUnauthorized = errors.New("no valid session or user id")

// AuthContext is the view of an authenticated session this package needs.
// The HTTP layer builds one from a verified token; User stays nil when the
// request carried no usable session.
type AuthContext struct {
	User *AuthUser
}

// AuthUser identifies the account a session belongs to.
type AuthUser struct {
	ID   string
	Name string
}

// UserID extracts the owning user id from an auth context, failing closed
// on a nil context, a nil user, or an empty id.
func UserID(actx *AuthContext) (string, error) {
	if actx == nil || actx.User == nil || actx.User.ID == "" {
		return "", ErrUnauthorized
	}
	return actx.User.ID, nil
}

type authContextKey struct{}

// WithAuthContext attaches the session's auth view to a context for the
// ambient forms of the query functions.
func WithAuthContext(ctx context.Context, actx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, actx)
}

// FromContext returns the ambient auth context, or nil when none is attached.
func FromContext(ctx context.Context) *AuthContext {
	actx, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return actx
}

// CurrentUserID resolves the user id from the ambient auth context.
func CurrentUserID(ctx context.Context) (string, error) {
	return UserID(FromContext(ctx))
}
