package utils

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type identityKey struct{}

type identity struct {
	id    uuid.UUID
	email string
	role  string
}

// SetUserContext attaches the authenticated user to ctx. Authenticate is the
// only production caller.
func SetUserContext(ctx context.Context, id uuid.UUID, email, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{id: id, email: email, role: role})
}

func identityFrom(ctx context.Context) (identity, bool) {
	who, ok := ctx.Value(identityKey{}).(identity)
	return who, ok
}

// GetUserIDFromContext reports false for anonymous requests.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	who, ok := identityFrom(ctx)
	return who.id, ok
}

func GetUserEmailFromContext(ctx context.Context) string {
	who, _ := identityFrom(ctx)
	return who.email
}

func GetUserRoleFromContext(ctx context.Context) string {
	who, _ := identityFrom(ctx)
	return who.role
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRoleFromContext(ctx) == RoleAdmin
}
