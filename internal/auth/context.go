package auth

import "context"

// Context carries the caller's verified identity and role into admin
// operations, replacing any ambient "current admin" lookup. Operations check
// it explicitly and reject with an authorization error.
type Context struct {
	UserID string
	Name   string
	Role   string
}

func (c Context) IsAdmin() bool {
	return c.Role == "admin"
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor attaches the verified caller to a request context.
func WithActor(ctx context.Context, actor Context) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor extracts the verified caller from a request context.
func Actor(ctx context.Context) (Context, bool) {
	actor, ok := ctx.Value(actorKey).(Context)
	return actor, ok
}
