package shared

import "context"

// Role distinguishes administrators from regular sales users.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Actor identifies the authenticated caller of a request.
type Actor struct {
	UserID int64
	Email  string
	Role   Role
}

// IsAdmin reports whether the actor bypasses per-user row scoping.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// RequireActor returns the actor or ErrUnauthorized when none is attached.
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID <= 0 {
		return Actor{}, ErrUnauthorized
	}
	return actor, nil
}

// OwnerScope returns the user id that listings must be restricted to, or nil
// for administrators.
func (a Actor) OwnerScope() *int64 {
	if a.IsAdmin() {
		return nil
	}
	id := a.UserID
	return &id
}

// CanAccess reports whether the actor may see a row created by ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
