// Package actor identifies the user or system process performing an action.
// Write-offs, batch collections and settings changes all record the acting
// user from this context.
package actor

import (
	"context"
	"fmt"
)

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the unique identifier of the actor (user ID)
	ID string `json:"id"`

	// Name is the actor's display name
	Name string `json:"name"`

	// Email is the actor's email address
	Email string `json:"email"`

	// Role is the actor's role (optional, for display purposes)
	Role string `json:"role,omitempty"`
}

// System is the actor recorded for scheduler-initiated mutations.
var System = &Actor{ID: "system", Name: "system"}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Email)
}

type contextKey struct{}

// WithActor attaches an actor to the context
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext retrieves the actor from the context, or nil if absent
func FromContext(ctx context.Context) *Actor {
	if a, ok := ctx.Value(contextKey{}).(*Actor); ok {
		return a
	}
	return nil
}

// IDFromContext returns the acting user's ID, or "system" when no actor is set
func IDFromContext(ctx context.Context) string {
	if a := FromContext(ctx); a != nil {
		return a.ID
	}
	return System.ID
}
