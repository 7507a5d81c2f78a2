package identity

import (
	"context"
	"fmt"
)

// Role is the closed set of actor roles known to the admin backend.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleMethodologist Role = "methodologist"
	RoleStudent       Role = "student"
)

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleMethodologist, RoleStudent:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Actor is the current user as seen by the service. Read-only to consumers.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// CanEdit reports whether the actor may edit a lesson owned by ownerID.
// Admins edit everything; methodologists edit only their own lessons.
// Pure predicate: no hidden state, callable from tests directly.
func CanEdit(actor Actor, ownerID string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.Role == RoleMethodologist && actor.ID == ownerID
}

// Provider supplies the current actor. The HTTP layer implements this from
// request headers; tests use StaticProvider.
type Provider interface {
	Current(ctx context.Context) (Actor, error)
}

// StaticProvider always returns the same actor.
type StaticProvider struct {
	Actor Actor
}

func (p StaticProvider) Current(_ context.Context) (Actor, error) {
	return p.Actor, nil
}
