package accounts

import "context"

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// ActorFromContext retrieves the authenticated actor, or nil.
func ActorFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(actorKey).(*User)
	return u
}
