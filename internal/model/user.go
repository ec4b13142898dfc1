package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, int, error)
	Count(ctx context.Context) (int, error)
}

// User represents a registered account. Users are soft-disabled through
// IsActive and never hard-deleted in the normal flow.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	IsSuperadmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
