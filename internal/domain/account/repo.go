package account

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	// EnsureRoles creates any of roles that do not exist yet.
	EnsureRoles(ctx context.Context, roles ...string) error
	Create(ctx context.Context, u *User) error
	AddRole(ctx context.Context, userID uuid.UUID, role string) error
	// GetByUsername matches case-insensitively and loads the user's roles.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
