// Package actor carries the authenticated actor through request context.
// Document operations never infer the current user from framework globals;
// they receive it explicitly via this package.
package actor

import (
	"context"
)

// Context identifies who is performing an operation.
// Populated by the HTTP auth middleware, consumed by document services
// for created_by/updated_by stamping and by the audit trail.
type Context struct {
	UserID   string
	Username string
	Roles    []string
}

type actorKey struct{}

// System is used for non-interactive operations (migrations, seeding).
var System = &Context{UserID: "system", Username: "system"}

// With adds the actor to context.
func With(ctx context.Context, a *Context) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// From returns the actor from context, or nil if unauthenticated.
func From(ctx context.Context) *Context {
	if a, ok := ctx.Value(actorKey{}).(*Context); ok {
		return a
	}
	return nil
}

// Username returns the actor's username from context or empty string.
func Username(ctx context.Context) string {
	if a := From(ctx); a != nil {
		return a.Username
	}
	return ""
}

// HasRole checks if the actor has a specific role.
func (a *Context) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
