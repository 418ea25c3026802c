package shared

import "context"

// Actor identifies the authenticated principal acting on a request. The
// portal does not authenticate anyone itself; the upstream identity
// provider supplies these values and they are carried through context for
// audit trails and transition checks.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Actor roles as supplied by the identity provider.
const (
	RoleFinanceOfficer = "FINANCE_OFFICER"
	RoleDirector       = "DIRECTOR"
	RoleExecutive      = "EXECUTIVE"
)

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context; the zero Actor means
// the request was anonymous.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
